package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, host_id, guest_id, start_utc, end_utc, duration_minutes,
       calendar_uid, revision_sequence, stage, created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...any) error }) (Bookings, error) {
	var b Bookings
	err := row.Scan(
		&b.ID, &b.HostID, &b.GuestID, &b.StartUtc, &b.EndUtc, &b.DurationMinutes,
		&b.CalendarUID, &b.RevisionSequence, &b.Stage, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

const getBooking = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

func (q *Queries) GetBooking(ctx context.Context, db DBTX, id uuid.UUID) (Bookings, error) {
	return scanBooking(db.QueryRow(ctx, getBooking, id))
}

const getBookingForUpdate = getBooking + ` FOR UPDATE`

// GetBookingForUpdate locks the row until the surrounding transaction ends.
func (q *Queries) GetBookingForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (Bookings, error) {
	return scanBooking(db.QueryRow(ctx, getBookingForUpdate, id))
}

const createBooking = `
INSERT INTO bookings (id, host_id, guest_id, start_utc, end_utc, duration_minutes,
                      calendar_uid, revision_sequence, stage, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

type CreateBookingParams struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	GuestID          pgtype.UUID
	StartUtc         time.Time
	EndUtc           time.Time
	DurationMinutes  int32
	CalendarUID      string
	RevisionSequence int32
	Stage            string
	CreatedAt        time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, db DBTX, arg CreateBookingParams) error {
	_, err := db.Exec(ctx, createBooking,
		arg.ID, arg.HostID, arg.GuestID, arg.StartUtc, arg.EndUtc, arg.DurationMinutes,
		arg.CalendarUID, arg.RevisionSequence, arg.Stage, arg.CreatedAt,
	)
	return err
}

// The WHERE clause repeats the values the caller read, so a concurrent writer
// that got in first turns this into a zero-row update.
const updateBookingGuarded = `
UPDATE bookings
SET guest_id = $2, start_utc = $3, end_utc = $4, duration_minutes = $5,
    revision_sequence = $6, stage = $7, updated_at = $8
WHERE id = $1
  AND revision_sequence = $9
  AND guest_id IS NOT DISTINCT FROM $10`

type UpdateBookingGuardedParams struct {
	ID               uuid.UUID
	GuestID          pgtype.UUID
	StartUtc         time.Time
	EndUtc           time.Time
	DurationMinutes  int32
	RevisionSequence int32
	Stage            string
	UpdatedAt        time.Time
	ExpectedRevision int32
	ExpectedGuestID  pgtype.UUID
}

func (q *Queries) UpdateBookingGuarded(ctx context.Context, db DBTX, arg UpdateBookingGuardedParams) (int64, error) {
	tag, err := db.Exec(ctx, updateBookingGuarded,
		arg.ID, arg.GuestID, arg.StartUtc, arg.EndUtc, arg.DurationMinutes,
		arg.RevisionSequence, arg.Stage, arg.UpdatedAt,
		arg.ExpectedRevision, arg.ExpectedGuestID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteBooking = `DELETE FROM bookings WHERE id = $1`

func (q *Queries) DeleteBooking(ctx context.Context, db DBTX, id uuid.UUID) (int64, error) {
	tag, err := db.Exec(ctx, deleteBooking, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listBookingsByParticipant = `SELECT ` + bookingColumns + `
FROM bookings
WHERE host_id = $1 OR guest_id = $1
ORDER BY start_utc ASC, id ASC
LIMIT $2`

func (q *Queries) ListBookingsByParticipant(ctx context.Context, db DBTX, userID uuid.UUID, limit int32) ([]Bookings, error) {
	rows, err := db.Query(ctx, listBookingsByParticipant, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bookings
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
