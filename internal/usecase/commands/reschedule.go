package commands

import (
	"context"
	"log/slog"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/ics"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrMissingCounter   = errs.Mark(errs.New("a counter proposal needs a start and end time"), errs.ErrInvalidInput)
	ErrUnknownAction    = errs.Mark(errs.New("unknown decision action"), errs.ErrInvalidInput)
	ErrSlotNotWhole     = errs.Mark(errs.New("proposed slot must be a whole number of minutes"), errs.ErrInvalidInput)
	ErrLinkNotForSender = errs.Mark(errs.New("link holder is not a participant of this session"), errs.ErrForbidden)
)

type SlotInput struct {
	Start time.Time
	End   time.Time
	Note  *string
}

type DecideInput struct {
	Action negotiation.Action
	// Counter is required for ActionPropose.
	Counter *SlotInput
}

type ProposeResult struct {
	ProposalID    uuid.UUID
	NegotiationID uuid.UUID
	// Superseded is the pending proposal declined by this one, if any.
	Superseded *uuid.UUID
	Delivery   DeliveryResult
}

type DecideResult struct {
	Action     negotiation.Action
	ProposalID uuid.UUID
	// Booking is the state after the decision; nil after a cancel.
	Booking *booking.Booking
	// Counter is set for ActionPropose.
	Counter      *ProposeResult
	Notification NotifyResult
}

// DecisionPreview is what the holder of a decision link is deciding on.
type DecisionPreview struct {
	ProposalID    uuid.UUID
	NegotiationID uuid.UUID
	BookingID     uuid.UUID
	ProposedBy    negotiation.Role
	ProposerEmail string
	ProposedStart time.Time
	ProposedEnd   time.Time
	Note          *string
	CurrentStart  time.Time
	CurrentEnd    time.Time
	ExpiresAt     time.Time
	// Actionable is false when the proposal was decided or superseded.
	Actionable bool
}

//go:generate mockgen -source=reschedule.go -destination=../../../tests/mock/commands/reschedule_mock.go -package=commandsmock
type RescheduleCommands interface {
	ProposeWithToken(ctx context.Context, token string, in SlotInput) (*ProposeResult, error)
	ProposeAsParticipant(ctx context.Context, bookingID, actorID uuid.UUID, in SlotInput) (*ProposeResult, error)
	Decide(ctx context.Context, token string, in DecideInput) (*DecideResult, error)
	Preview(ctx context.Context, token string) (*DecisionPreview, error)
}

type rescheduleUseCaseImpl struct {
	uow        shared.UnitOfWork
	clock      clock.Clock
	tokens     *TokenService
	bookings   *BookingStore
	proposals  *ProposalStore
	composer   *InviteComposer
	dispatcher *NotificationDispatcher
	calendar   *CalendarNotifier
	links      config.LinkConfig
}

func NewRescheduleUseCase(
	uow shared.UnitOfWork,
	clk clock.Clock,
	tokens *TokenService,
	bookings *BookingStore,
	proposals *ProposalStore,
	composer *InviteComposer,
	dispatcher *NotificationDispatcher,
	calendar *CalendarNotifier,
	cfg config.Config,
) RescheduleCommands {
	return &rescheduleUseCaseImpl{
		uow:        uow,
		clock:      clk,
		tokens:     tokens,
		bookings:   bookings,
		proposals:  proposals,
		composer:   composer,
		dispatcher: dispatcher,
		calendar:   calendar,
		links:      cfg.Links,
	}
}

// proposeArgs describe a new proposal inside an open transaction.
type proposeArgs struct {
	booking       *booking.Booking
	people        Participants
	negotiationID uuid.UUID
	proposer      *user.Contact
	// role is used when the negotiation has no pending proposal to derive it from.
	role  negotiation.Role
	slot  SlotInput
	draft draft
}

// draft pins the generated parts of a proposal so that a retried transaction
// stores the same proposal and mails the same link.
type draft struct {
	proposalID uuid.UUID
	nonce      string
	issuedAt   time.Time
}

func (uc *rescheduleUseCaseImpl) newDraft() draft {
	return draft{proposalID: uuid.New(), nonce: uuid.NewString(), issuedAt: uc.clock.Now()}
}

func (uc *rescheduleUseCaseImpl) ProposeWithToken(ctx context.Context, token string, in SlotInput) (*ProposeResult, error) {
	if err := validateSlot(in); err != nil {
		return nil, err
	}

	d := uc.newDraft()
	var result *ProposeResult
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		claims, err := uc.tokens.Verify(ctx, tx, token, captoken.PurposePropose)
		if err != nil {
			return err
		}
		if err := uc.tokens.Consume(ctx, tx, token); err != nil {
			return err
		}

		b, err := tx.Bookings().GetForUpdate(ctx, tx.DB(), claims.BookingID)
		if err != nil {
			return err
		}
		if !b.IsBooked() {
			return booking.ErrNotBooked
		}
		people, err := loadParticipants(ctx, tx, b)
		if err != nil {
			return err
		}
		proposer, ok := people.ByEmail(claims.ActorEmail)
		if !ok {
			return ErrLinkNotForSender
		}

		result, err = uc.propose(ctx, tx, proposeArgs{
			booking:       b,
			people:        people,
			negotiationID: claims.NegotiationID,
			proposer:      proposer,
			role:          claims.ActorRole,
			slot:          in,
			draft:         d,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *rescheduleUseCaseImpl) ProposeAsParticipant(ctx context.Context, bookingID, actorID uuid.UUID, in SlotInput) (*ProposeResult, error) {
	if err := validateSlot(in); err != nil {
		return nil, err
	}

	d := uc.newDraft()
	fallbackNegotiation := uuid.New()
	var result *ProposeResult
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		if !b.IsParticipant(actorID) {
			return booking.ErrNotParticipant
		}
		if _, err := b.Counterpart(actorID); err != nil {
			return err
		}
		people, err := loadParticipants(ctx, tx, b)
		if err != nil {
			return err
		}
		proposer := people.Host
		if actorID != b.HostID() {
			proposer = people.Guest
		}

		negotiationID := fallbackNegotiation
		latest, err := tx.Proposals().LatestForBooking(ctx, tx.DB(), bookingID)
		if err != nil {
			return err
		}
		if latest != nil && latest.IsPending() {
			negotiationID = latest.NegotiationID()
		}

		result, err = uc.propose(ctx, tx, proposeArgs{
			booking:       b,
			people:        people,
			negotiationID: negotiationID,
			proposer:      proposer,
			role:          negotiation.RoleInitiator,
			slot:          in,
			draft:         d,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// propose supersedes any pending proposal of the negotiation, stores the new
// one and delivers a decision link to the other participant. A failed
// delivery fails the whole transaction.
func (uc *rescheduleUseCaseImpl) propose(ctx context.Context, tx shared.Tx, a proposeArgs) (*ProposeResult, error) {
	result := &ProposeResult{NegotiationID: a.negotiationID}

	state, latest, err := uc.proposals.State(ctx, tx, a.negotiationID)
	if err != nil {
		return nil, err
	}
	role := a.role
	if _, pending := negotiation.PendingID(state); pending {
		role = roleAgainst(latest, a.proposer)
		if err := uc.proposals.Decide(ctx, tx, latest, negotiation.StatusDeclined, role); err != nil {
			return nil, err
		}
		superseded := latest.ID()
		result.Superseded = &superseded
		slog.Info("pending proposal superseded",
			"negotiation_id", a.negotiationID,
			"proposal_id", superseded)
	}

	p, err := uc.proposals.Create(ctx, tx, negotiation.NewProposalParams{
		ID:            a.draft.proposalID,
		BookingID:     a.booking.ID(),
		NegotiationID: a.negotiationID,
		ProposedBy:    role,
		ProposerEmail: a.proposer.Email().Value(),
		Start:         a.slot.Start,
		End:           a.slot.End,
		Note:          a.slot.Note,
		BaseRevision:  a.booking.RevisionSequence(),
	})
	if err != nil {
		return nil, err
	}
	result.ProposalID = p.ID()

	recipient := a.people.Other(a.proposer)
	proposalID := p.ID()
	issued, err := uc.tokens.Issue(ctx, tx, IssueParams{
		NegotiationID: a.negotiationID,
		BookingID:     a.booking.ID(),
		ProposalID:    &proposalID,
		ActorEmail:    recipient.Email().Value(),
		ActorRole:     role.Opposite(),
		Purpose:       captoken.PurposeDecide,
		TTL:           uc.links.DecisionTTL,
		Nonce:         a.draft.nonce,
		IssuedAt:      a.draft.issuedAt,
	})
	if err != nil {
		return nil, err
	}

	delivery, err := uc.dispatcher.Deliver(ctx, uc.composer.DecisionLink(DecisionEmail{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt(),
		Proposal:  p,
		Revision:  a.booking.RevisionSequence(),
		Recipient: recipient,
		Proposer:  a.proposer.DisplayName(),
	}))
	if err != nil {
		return nil, errs.Wrap(err, "deliver decision link")
	}
	result.Delivery = delivery
	return result, nil
}

func (uc *rescheduleUseCaseImpl) Decide(ctx context.Context, token string, in DecideInput) (*DecideResult, error) {
	if _, err := negotiation.NewAction(string(in.Action)); err != nil {
		return nil, ErrUnknownAction
	}

	var (
		result *DecideResult
		after  func(ctx context.Context) NotifyResult
	)
	d := uc.newDraft()
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result = &DecideResult{Action: in.Action}
		after = nil
		claims, err := uc.tokens.Verify(ctx, tx, token, captoken.PurposeDecide)
		if err != nil {
			return err
		}
		if in.Action == negotiation.ActionPropose {
			if in.Counter == nil {
				return ErrMissingCounter
			}
			if err := validateSlot(*in.Counter); err != nil {
				return err
			}
		}
		if err := uc.tokens.Consume(ctx, tx, token); err != nil {
			return err
		}

		state, proposal, err := uc.proposals.State(ctx, tx, claims.NegotiationID)
		if err != nil {
			return err
		}
		if err := negotiation.CanDecide(state, *claims.ProposalID); err != nil {
			return err
		}
		result.ProposalID = proposal.ID()

		b, err := tx.Bookings().GetForUpdate(ctx, tx.DB(), claims.BookingID)
		if err != nil {
			return err
		}
		people, err := loadParticipants(ctx, tx, b)
		if err != nil {
			return err
		}
		decider, ok := people.ByEmail(claims.ActorEmail)
		if !ok {
			return ErrLinkNotForSender
		}
		correlation := claims.NegotiationID.String()

		switch in.Action {
		case negotiation.ActionAgree:
			if err := uc.proposals.Decide(ctx, tx, proposal, negotiation.StatusApproved, claims.ActorRole); err != nil {
				return err
			}
			start := proposal.Slot().Start()
			minutes := int(proposal.Slot().Duration() / time.Minute)
			base := proposal.BaseRevision()
			// Both parties consented, so the change is applied with the host's authority.
			updated, _, err := uc.bookings.ApplyGuardedUpdate(ctx, tx, GuardedUpdate{
				BookingID:        b.ID(),
				ActorID:          b.HostID(),
				Patch:            booking.Patch{Start: &start, DurationMinutes: &minutes},
				ExpectedRevision: &base,
			})
			if err != nil {
				return err
			}
			result.Booking = updated
			after = func(ctx context.Context) NotifyResult {
				return uc.calendar.Notify(ctx, updated, people, ics.MethodRequest, correlation)
			}

		case negotiation.ActionCancel:
			if err := uc.proposals.Decide(ctx, tx, proposal, negotiation.StatusDeclined, claims.ActorRole); err != nil {
				return err
			}
			if err := uc.bookings.Delete(ctx, tx, b.ID()); err != nil {
				return err
			}
			snapshot := b
			after = func(ctx context.Context) NotifyResult {
				return uc.calendar.Notify(ctx, snapshot, people, ics.MethodCancel, correlation)
			}

		case negotiation.ActionPropose:
			if err := uc.proposals.Decide(ctx, tx, proposal, negotiation.StatusDeclined, claims.ActorRole); err != nil {
				return err
			}
			counter, err := uc.propose(ctx, tx, proposeArgs{
				booking:       b,
				people:        people,
				negotiationID: claims.NegotiationID,
				proposer:      decider,
				role:          claims.ActorRole,
				slot:          *in.Counter,
				draft:         d,
			})
			if err != nil {
				return err
			}
			result.Booking = b
			result.Counter = counter
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Notification = NotifyOK{}
	if after != nil {
		result.Notification = after(ctx)
	}
	return result, nil
}

func (uc *rescheduleUseCaseImpl) Preview(ctx context.Context, token string) (*DecisionPreview, error) {
	var preview *DecisionPreview
	err := uc.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		claims, err := uc.tokens.Verify(ctx, tx, token, captoken.PurposeDecide)
		if err != nil {
			return err
		}
		p, err := tx.Proposals().Get(ctx, tx.DB(), *claims.ProposalID)
		if err != nil {
			return err
		}
		b, err := uc.bookings.Get(ctx, tx, claims.BookingID)
		if err != nil {
			return err
		}
		state, _, err := uc.proposals.State(ctx, tx, claims.NegotiationID)
		if err != nil {
			return err
		}
		preview = &DecisionPreview{
			ProposalID:    p.ID(),
			NegotiationID: p.NegotiationID(),
			BookingID:     b.ID(),
			ProposedBy:    p.ProposedBy(),
			ProposerEmail: p.ProposerEmail(),
			ProposedStart: p.Slot().Start(),
			ProposedEnd:   p.Slot().End(),
			Note:          p.Note(),
			CurrentStart:  b.Start(),
			CurrentEnd:    b.End(),
			ExpiresAt:     claims.ExpiresAtTime(),
			Actionable:    negotiation.CanDecide(state, p.ID()) == nil,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}

// roleAgainst is the role of proposer in a thread whose latest proposal is latest.
func roleAgainst(latest *negotiation.Proposal, proposer *user.Contact) negotiation.Role {
	if proposer.Email().Matches(latest.ProposerEmail()) {
		return latest.ProposedBy()
	}
	return latest.ProposedBy().Opposite()
}

func validateSlot(in SlotInput) error {
	if !in.End.After(in.Start) {
		return negotiation.ErrInvalidSlot
	}
	d := in.End.Sub(in.Start)
	if d%time.Minute != 0 {
		return ErrSlotNotWhole
	}
	return booking.ValidateDuration(int(d / time.Minute))
}
