package queries

import (
	"context"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var ErrNotVisible = errs.Mark(errs.New("session is not visible to this user"), errs.ErrNotFound)

// Read models (DTO for read side)
type BookingView struct {
	ID               uuid.UUID     `json:"id"`
	HostID           uuid.UUID     `json:"host_id"`
	GuestID          *uuid.UUID    `json:"guest_id,omitempty" copier:"-"`
	Start            time.Time     `json:"start_utc"`
	End              time.Time     `json:"end_utc"`
	DurationMinutes  int           `json:"duration_minutes"`
	CalendarUID      string        `json:"calendar_uid"`
	RevisionSequence int           `json:"revision_sequence"`
	Stage            string        `json:"stage" copier:"-"`
	PendingProposal  *ProposalView `json:"pending_proposal,omitempty" copier:"-"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type ProposalView struct {
	ID            uuid.UUID `json:"id"`
	NegotiationID uuid.UUID `json:"negotiation_id"`
	ProposedBy    string    `json:"proposed_by" copier:"-"`
	ProposerEmail string    `json:"proposer_email"`
	Start         time.Time `json:"start_utc" copier:"-"`
	End           time.Time `json:"end_utc" copier:"-"`
	Note          *string   `json:"note,omitempty" copier:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/queries/booking_mock.go -package=queriesmock
type BookingQueries interface {
	// Get returns a session its viewer takes part in.
	Get(ctx context.Context, bookingID, viewerID uuid.UUID) (*BookingView, error)
	ListMine(ctx context.Context, viewerID uuid.UUID, limit int) ([]BookingView, error)
}

type bookingQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewBookingQueries(uow shared.UnitOfWork) BookingQueries {
	return &bookingQueriesImpl{uow: uow}
}

func (q *bookingQueriesImpl) Get(ctx context.Context, bookingID, viewerID uuid.UUID) (*BookingView, error) {
	var view *BookingView
	err := q.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().Get(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		if !b.IsParticipant(viewerID) {
			return ErrNotVisible
		}
		pending, err := tx.Proposals().LatestForBooking(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		view, err = toBookingView(b, pending)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListMine(ctx context.Context, viewerID uuid.UUID, limit int) ([]BookingView, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	var views []BookingView
	err := q.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		bookings, err := tx.Bookings().ListByParticipant(ctx, tx.DB(), viewerID, limit)
		if err != nil {
			return err
		}
		views = make([]BookingView, 0, len(bookings))
		for _, b := range bookings {
			v, err := toBookingView(b, nil)
			if err != nil {
				return err
			}
			views = append(views, *v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func toBookingView(b *booking.Booking, latest *negotiation.Proposal) (*BookingView, error) {
	var view BookingView
	if err := copier.Copy(&view, b); err != nil {
		return nil, errs.Wrap(err, "map booking view")
	}
	// pointer getters are assigned by hand, copier leaves zero values behind
	view.GuestID = b.GuestID()
	view.Stage = string(b.Stage())
	if latest != nil && latest.IsPending() {
		var pv ProposalView
		if err := copier.Copy(&pv, latest); err != nil {
			return nil, errs.Wrap(err, "map proposal view")
		}
		pv.ProposedBy = latest.ProposedBy().String()
		pv.Start = latest.Slot().Start()
		pv.End = latest.Slot().End()
		pv.Note = latest.Note()
		view.PendingProposal = &pv
	}
	return &view, nil
}
