package commands

import (
	"context"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/ics"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrOnlyHostCanCancel = errs.Mark(errs.New("only the host can cancel the session"), errs.ErrForbidden)

type CreateBookingInput struct {
	Start           time.Time
	DurationMinutes int
}

type BookingResult struct {
	Booking      *booking.Booking
	Change       booking.Change
	Notification NotifyResult
}

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking_mock.go -package=commandsmock
type BookingCommands interface {
	Create(ctx context.Context, hostID uuid.UUID, in CreateBookingInput) (*BookingResult, error)
	Update(ctx context.Context, bookingID, actorID uuid.UUID, p booking.Patch) (*BookingResult, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingResult, error)
}

type bookingUseCaseImpl struct {
	uow       shared.UnitOfWork
	clock     clock.Clock
	store     *BookingStore
	calendar  *CalendarNotifier
	uidDomain string
}

func NewBookingUseCase(uow shared.UnitOfWork, clk clock.Clock, store *BookingStore, calendar *CalendarNotifier, cfg config.Config) BookingCommands {
	return &bookingUseCaseImpl{
		uow:       uow,
		clock:     clk,
		store:     store,
		calendar:  calendar,
		uidDomain: cfg.Calendar.UIDDomain,
	}
}

func (uc *bookingUseCaseImpl) Create(ctx context.Context, hostID uuid.UUID, in CreateBookingInput) (*BookingResult, error) {
	b, err := booking.NewBooking(hostID, in.Start, in.DurationMinutes, uc.uidDomain, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().Create(ctx, tx.DB(), b)
	})
	if err != nil {
		return nil, err
	}
	return &BookingResult{Booking: b, Notification: NotifyOK{}}, nil
}

// Update applies a guarded patch. Calendar mail goes out after commit when a
// guest was assigned or a booked session moved; a mail failure does not undo the update.
func (uc *bookingUseCaseImpl) Update(ctx context.Context, bookingID, actorID uuid.UUID, p booking.Patch) (*BookingResult, error) {
	var (
		updated *booking.Booking
		change  booking.Change
		people  Participants
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		updated, change, err = uc.store.ApplyGuardedUpdate(ctx, tx, GuardedUpdate{
			BookingID: bookingID,
			ActorID:   actorID,
			Patch:     p,
		})
		if err != nil {
			return err
		}
		if change.GuestAssigned || change.Rescheduled {
			people, err = loadParticipants(ctx, tx, updated)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &BookingResult{Booking: updated, Change: change, Notification: NotifyOK{}}
	if change.GuestAssigned || change.Rescheduled {
		result.Notification = uc.calendar.Notify(ctx, updated, people, ics.MethodRequest, lifecycleCorrelation(updated.ID()))
	}
	return result, nil
}

// Cancel deletes the session. Only the host may cancel; a booked session's
// attendees receive a CANCEL invite built from the state before deletion.
func (uc *bookingUseCaseImpl) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*BookingResult, error) {
	var (
		snapshot *booking.Booking
		people   Participants
	)
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		if !b.IsParticipant(actorID) {
			return booking.ErrNotParticipant
		}
		if b.HostID() != actorID {
			return ErrOnlyHostCanCancel
		}
		if b.IsBooked() {
			if people, err = loadParticipants(ctx, tx, b); err != nil {
				return err
			}
		}
		snapshot = b
		return uc.store.Delete(ctx, tx, bookingID)
	})
	if err != nil {
		return nil, err
	}

	result := &BookingResult{Booking: snapshot, Notification: NotifyOK{}}
	if snapshot.IsBooked() {
		result.Notification = uc.calendar.Notify(ctx, snapshot, people, ics.MethodCancel, lifecycleCorrelation(snapshot.ID()))
	}
	return result, nil
}

func lifecycleCorrelation(id uuid.UUID) string {
	return "booking-" + id.String()
}
