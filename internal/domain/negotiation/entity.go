package negotiation

import (
	"strings"
	"time"

	"practice-hub/internal/pkg/errs"

	"github.com/google/uuid"
)

const MaxNoteLength = 1000

var (
	ErrInvalidSlot      = errs.Mark(errs.New("proposed end must be after proposed start"), errs.ErrInvalidInput)
	ErrSlotInPast       = errs.Mark(errs.New("proposed start must be in the future"), errs.ErrInvalidInput)
	ErrNoteTooLong      = errs.Mark(errs.New("note is too long"), errs.ErrInvalidInput)
	ErrMissingProposer  = errs.Mark(errs.New("proposer email is required"), errs.ErrInvalidInput)
	ErrNotPending       = errs.Mark(errs.New("proposal is no longer pending"), errs.ErrAlreadyDecided)
	ErrDecideAsPending  = errs.Mark(errs.New("a decision must be approved or declined"), errs.ErrInvalidInput)
	ErrNegotiationEmpty = errs.Mark(errs.New("negotiation has no proposal"), errs.ErrNotFound)
)

// TimeSlot is a half-open UTC interval.
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end, now time.Time) (TimeSlot, error) {
	if !end.After(start) {
		return TimeSlot{}, ErrInvalidSlot
	}
	if !start.After(now) {
		return TimeSlot{}, ErrSlotInPast
	}
	return TimeSlot{start: start.UTC(), end: end.UTC()}, nil
}

func (ts TimeSlot) Start() time.Time        { return ts.start }
func (ts TimeSlot) End() time.Time          { return ts.end }
func (ts TimeSlot) Duration() time.Duration { return ts.end.Sub(ts.start) }

type Proposal struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	negotiationID uuid.UUID
	proposedBy    Role
	proposerEmail string
	slot          TimeSlot
	note          *string
	status        Status
	decidedBy     *Role
	baseRevision  int
	createdAt     time.Time
	decidedAt     *time.Time
}

type NewProposalParams struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	NegotiationID uuid.UUID
	ProposedBy    Role
	ProposerEmail string
	Start         time.Time
	End           time.Time
	Note          *string
	BaseRevision  int
}

func NewProposal(p NewProposalParams, now time.Time) (*Proposal, error) {
	if !p.ProposedBy.IsValid() {
		return nil, ErrInvalidRole
	}
	email := strings.TrimSpace(p.ProposerEmail)
	if email == "" {
		return nil, ErrMissingProposer
	}
	slot, err := NewTimeSlot(p.Start, p.End, now)
	if err != nil {
		return nil, err
	}
	note, err := normalizeNote(p.Note)
	if err != nil {
		return nil, err
	}
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Proposal{
		id:            id,
		bookingID:     p.BookingID,
		negotiationID: p.NegotiationID,
		proposedBy:    p.ProposedBy,
		proposerEmail: email,
		slot:          slot,
		note:          note,
		status:        StatusPending,
		baseRevision:  p.BaseRevision,
		createdAt:     now,
	}, nil
}

// ReconstructProposal rebuilds a stored proposal without validation.
func ReconstructProposal(
	id, bookingID, negotiationID uuid.UUID,
	proposedBy Role, proposerEmail string,
	start, end time.Time, note *string,
	status Status, decidedBy *Role, baseRevision int,
	createdAt time.Time, decidedAt *time.Time,
) *Proposal {
	return &Proposal{
		id:            id,
		bookingID:     bookingID,
		negotiationID: negotiationID,
		proposedBy:    proposedBy,
		proposerEmail: proposerEmail,
		slot:          TimeSlot{start: start.UTC(), end: end.UTC()},
		note:          note,
		status:        status,
		decidedBy:     decidedBy,
		baseRevision:  baseRevision,
		createdAt:     createdAt,
		decidedAt:     decidedAt,
	}
}

// Decide moves a pending proposal to a final status exactly once.
func (p *Proposal) Decide(status Status, by Role, now time.Time) error {
	if status != StatusApproved && status != StatusDeclined {
		return ErrDecideAsPending
	}
	if !by.IsValid() {
		return ErrInvalidRole
	}
	if p.status != StatusPending {
		return ErrNotPending
	}
	p.status = status
	p.decidedBy = &by
	p.decidedAt = &now
	return nil
}

func (p *Proposal) ID() uuid.UUID            { return p.id }
func (p *Proposal) BookingID() uuid.UUID     { return p.bookingID }
func (p *Proposal) NegotiationID() uuid.UUID { return p.negotiationID }
func (p *Proposal) ProposedBy() Role         { return p.proposedBy }
func (p *Proposal) ProposerEmail() string    { return p.proposerEmail }
func (p *Proposal) Slot() TimeSlot           { return p.slot }
func (p *Proposal) Note() *string            { return p.note }
func (p *Proposal) Status() Status           { return p.status }
func (p *Proposal) DecidedBy() *Role         { return p.decidedBy }
func (p *Proposal) BaseRevision() int        { return p.baseRevision }
func (p *Proposal) CreatedAt() time.Time     { return p.createdAt }
func (p *Proposal) DecidedAt() *time.Time    { return p.decidedAt }
func (p *Proposal) IsPending() bool          { return p.status == StatusPending }

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > MaxNoteLength {
		return nil, ErrNoteTooLong
	}
	return &trimmed, nil
}
