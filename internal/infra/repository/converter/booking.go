package converter

import (
	"practice-hub/internal/domain/booking"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/pkg/pgconv"
)

func BookingFromRow(row db.Bookings) *booking.Booking {
	return booking.ReconstructBooking(
		row.ID, row.HostID, pgconv.UUIDPtrFromPgtype(row.GuestID),
		row.StartUtc, int(row.DurationMinutes),
		row.CalendarUID, int(row.RevisionSequence), booking.Stage(row.Stage),
		row.CreatedAt.UTC(), row.UpdatedAt.UTC(),
	)
}

func BookingToCreateParams(b *booking.Booking) db.CreateBookingParams {
	return db.CreateBookingParams{
		ID:               b.ID(),
		HostID:           b.HostID(),
		GuestID:          pgconv.UUIDPtrToPgtype(b.GuestID()),
		StartUtc:         b.Start(),
		EndUtc:           b.End(),
		DurationMinutes:  pgconv.IntToInt32(b.DurationMinutes()),
		CalendarUID:      b.CalendarUID(),
		RevisionSequence: pgconv.IntToInt32(b.RevisionSequence()),
		Stage:            string(b.Stage()),
		CreatedAt:        b.CreatedAt(),
	}
}
