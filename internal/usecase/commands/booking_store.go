package commands

import (
	"context"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

type GuardedUpdate struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
	Patch     booking.Patch
	// ExpectedRevision, when set, rejects the update if the booking moved on.
	ExpectedRevision *int
}

// BookingStore applies patches under the booking guard rules. The row is
// locked for the rest of the transaction and the write is conditional on
// the revision and guest it was computed from.
type BookingStore struct {
	clock clock.Clock
}

func NewBookingStore(clk clock.Clock) *BookingStore {
	return &BookingStore{clock: clk}
}

func (s *BookingStore) Get(ctx context.Context, tx shared.Tx, id uuid.UUID) (*booking.Booking, error) {
	return tx.Bookings().Get(ctx, tx.DB(), id)
}

func (s *BookingStore) ApplyGuardedUpdate(ctx context.Context, tx shared.Tx, u GuardedUpdate) (*booking.Booking, booking.Change, error) {
	b, err := tx.Bookings().GetForUpdate(ctx, tx.DB(), u.BookingID)
	if err != nil {
		return nil, booking.Change{}, err
	}
	if u.ExpectedRevision != nil {
		if err := b.RequireRevision(*u.ExpectedRevision); err != nil {
			return nil, booking.Change{}, err
		}
	}

	guard := shared.BookingGuard{Revision: b.RevisionSequence(), GuestID: b.GuestID()}
	change, err := b.Apply(u.ActorID, u.Patch, s.clock.Now())
	if err != nil {
		return nil, booking.Change{}, err
	}
	if err := tx.Bookings().Update(ctx, tx.DB(), b, guard); err != nil {
		return nil, booking.Change{}, err
	}
	return b, change, nil
}

func (s *BookingStore) Delete(ctx context.Context, tx shared.Tx, id uuid.UUID) error {
	return tx.Bookings().Delete(ctx, tx.DB(), id)
}
