package repository

import (
	"context"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/infra/repository/converter"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/pgconv"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrBookingChanged = errs.Mark(errs.New("booking was modified concurrently"), errs.ErrBookingConflict)

type BookingQueries interface {
	GetBooking(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Bookings, error)
	GetBookingForUpdate(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Bookings, error)
	ListBookingsByParticipant(ctx context.Context, db db.DBTX, userID uuid.UUID, limit int32) ([]db.Bookings, error)
	CreateBooking(ctx context.Context, db db.DBTX, arg db.CreateBookingParams) error
	UpdateBookingGuarded(ctx context.Context, db db.DBTX, arg db.UpdateBookingGuardedParams) (int64, error)
	DeleteBooking(ctx context.Context, db db.DBTX, id uuid.UUID) (int64, error)
}

type BookingRepository struct {
	queries BookingQueries
}

func NewBookingRepository(queries BookingQueries) *BookingRepository {
	return &BookingRepository{queries: queries}
}

func (r *BookingRepository) Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row, err := r.queries.GetBooking(ctx, tx, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get booking", err)
	}
	return converter.BookingFromRow(row), nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row, err := r.queries.GetBookingForUpdate(ctx, tx, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}
	return converter.BookingFromRow(row), nil
}

func (r *BookingRepository) ListByParticipant(ctx context.Context, tx db.DBTX, userID uuid.UUID, limit int) ([]*booking.Booking, error) {
	rows, err := r.queries.ListBookingsByParticipant(ctx, tx, userID, pgconv.IntToInt32(limit))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	items := make([]*booking.Booking, 0, len(rows))
	for _, row := range rows {
		items = append(items, converter.BookingFromRow(row))
	}
	return items, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	if err := r.queries.CreateBooking(ctx, tx, converter.BookingToCreateParams(b)); err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, tx db.DBTX, b *booking.Booking, guard shared.BookingGuard) error {
	affected, err := r.queries.UpdateBookingGuarded(ctx, tx, db.UpdateBookingGuardedParams{
		ID:               b.ID(),
		GuestID:          pgconv.UUIDPtrToPgtype(b.GuestID()),
		StartUtc:         b.Start(),
		EndUtc:           b.End(),
		DurationMinutes:  pgconv.IntToInt32(b.DurationMinutes()),
		RevisionSequence: pgconv.IntToInt32(b.RevisionSequence()),
		Stage:            string(b.Stage()),
		UpdatedAt:        b.UpdatedAt(),
		ExpectedRevision: pgconv.IntToInt32(guard.Revision),
		ExpectedGuestID:  pgconv.UUIDPtrToPgtype(guard.GuestID),
	})
	if err != nil {
		return infra.WrapRepoErr("failed to update booking", err)
	}
	if affected == 0 {
		return ErrBookingChanged
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, tx db.DBTX, id uuid.UUID) error {
	affected, err := r.queries.DeleteBooking(ctx, tx, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete booking", err)
	}
	if affected == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}
