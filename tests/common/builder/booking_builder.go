//go:build unit || e2e || integration

package builder

import (
	"time"

	"practice-hub/internal/domain/booking"
	reqdto "practice-hub/internal/handler/dto/request"

	"github.com/google/uuid"
)

const testUIDDomain = "practice-hub.test"

type BookingBuilder struct {
	HostID          uuid.UUID
	GuestID         *uuid.UUID
	Start           time.Time
	DurationMinutes int
	Revision        int
	Now             time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		HostID:          uuid.New(),
		Start:           now.Add(48 * time.Hour),
		DurationMinutes: 45,
		Now:             now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

// BuildDomain creates an open booking through the validating constructor.
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	return booking.NewBooking(b.HostID, b.Start, b.DurationMinutes, testUIDDomain, b.Now)
}

// BuildBooked reconstructs a booking that already has a guest, skipping validation.
func (b *BookingBuilder) BuildBooked() *booking.Booking {
	guest := b.GuestID
	if guest == nil {
		id := uuid.New()
		guest = &id
	}
	id := uuid.New()
	return booking.ReconstructBooking(
		id, b.HostID, guest,
		b.Start, b.DurationMinutes,
		id.String()+"@"+testUIDDomain, b.Revision, booking.StageBooked,
		b.Now, b.Now,
	)
}

func (b *BookingBuilder) BuildCreateDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		StartTime:       b.Start,
		DurationMinutes: b.DurationMinutes,
	}
}

func (b *BookingBuilder) WithHost(id uuid.UUID) *BookingBuilder {
	b.HostID = id
	return b
}

func (b *BookingBuilder) WithGuest(id uuid.UUID) *BookingBuilder {
	b.GuestID = &id
	return b
}

func (b *BookingBuilder) WithStart(start time.Time) *BookingBuilder {
	b.Start = start
	return b
}

func (b *BookingBuilder) WithDuration(minutes int) *BookingBuilder {
	b.DurationMinutes = minutes
	return b
}

func (b *BookingBuilder) WithRevision(rev int) *BookingBuilder {
	b.Revision = rev
	return b
}
