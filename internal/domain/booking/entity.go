package booking

import (
	"time"

	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/patch"

	"github.com/google/uuid"
)

const (
	MinDurationMinutes = 5
	MaxDurationMinutes = 8 * 60
)

var (
	ErrHostCannotBookOwn     = errs.Mark(errs.New("host cannot book their own session"), errs.ErrForbidden)
	ErrCanOnlyBookSelf       = errs.Mark(errs.New("guests can only book themselves"), errs.ErrForbidden)
	ErrAlreadyBooked         = errs.Mark(errs.New("session already has a guest"), errs.ErrBookingConflict)
	ErrOnlyHostCanReschedule = errs.Mark(errs.New("only the host can change the session time"), errs.ErrForbidden)
	ErrStartNotInFuture      = errs.Mark(errs.New("start time must be in the future"), errs.ErrInvalidInput)
	ErrInvalidDuration       = errs.Mark(errs.New("duration is out of range"), errs.ErrInvalidInput)
	ErrRevisionMismatch      = errs.Mark(errs.New("session changed since this was requested"), errs.ErrBookingConflict)
	ErrNotBooked             = errs.Mark(errs.New("session has no guest yet"), errs.ErrInvalidInput)
	ErrNotParticipant        = errs.Mark(errs.New("not a participant of this session"), errs.ErrForbidden)
	ErrEmptyPatch            = errs.Mark(errs.New("nothing to update"), errs.ErrInvalidInput)
)

type Stage string

const (
	StageOpen   Stage = "open"
	StageBooked Stage = "booked"
)

// Booking is a scheduled two-party session. End is always start + duration.
type Booking struct {
	id               uuid.UUID
	hostID           uuid.UUID
	guestID          *uuid.UUID
	start            time.Time
	durationMinutes  int
	calendarUID      string
	revisionSequence int
	stage            Stage
	createdAt        time.Time
	updatedAt        time.Time
}

func NewBooking(hostID uuid.UUID, start time.Time, durationMinutes int, uidDomain string, now time.Time) (*Booking, error) {
	if !start.After(now) {
		return nil, ErrStartNotInFuture
	}
	if err := ValidateDuration(durationMinutes); err != nil {
		return nil, err
	}
	id := uuid.New()
	return &Booking{
		id:              id,
		hostID:          hostID,
		start:           start.UTC(),
		durationMinutes: durationMinutes,
		calendarUID:     id.String() + "@" + uidDomain,
		stage:           StageOpen,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func ReconstructBooking(
	id, hostID uuid.UUID, guestID *uuid.UUID,
	start time.Time, durationMinutes int,
	calendarUID string, revisionSequence int, stage Stage,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		hostID:           hostID,
		guestID:          guestID,
		start:            start.UTC(),
		durationMinutes:  durationMinutes,
		calendarUID:      calendarUID,
		revisionSequence: revisionSequence,
		stage:            stage,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	GuestID         *uuid.UUID
	Start           *time.Time
	DurationMinutes *int
}

func (p Patch) IsEmpty() bool {
	return p.GuestID == nil && p.Start == nil && p.DurationMinutes == nil
}

// Change describes what an applied patch did.
type Change struct {
	GuestAssigned bool
	Rescheduled   bool
	// PreviousRevision is the revision before the patch was applied.
	PreviousRevision int
}

// Apply enforces the guard rules in order: guest assignment, then time changes,
// then revision bookkeeping. Nothing is modified when a rule fails.
func (b *Booking) Apply(actorID uuid.UUID, p Patch, now time.Time) (Change, error) {
	change := Change{PreviousRevision: b.revisionSequence}
	if p.IsEmpty() {
		return change, ErrEmptyPatch
	}

	if p.GuestID != nil {
		if actorID == b.hostID {
			return change, ErrHostCannotBookOwn
		}
		if *p.GuestID != actorID {
			return change, ErrCanOnlyBookSelf
		}
		if b.guestID != nil {
			return change, ErrAlreadyBooked
		}
	}

	newStart := patch.Coalesce(p.Start, b.start).UTC()
	newDuration := patch.Coalesce(p.DurationMinutes, b.durationMinutes)
	if p.Start != nil || p.DurationMinutes != nil {
		if actorID != b.hostID {
			return change, ErrOnlyHostCanReschedule
		}
		if p.Start != nil && !newStart.After(now) {
			return change, ErrStartNotInFuture
		}
		if err := ValidateDuration(newDuration); err != nil {
			return change, err
		}
	}

	wasBooked := b.guestID != nil
	timeChanged := !newStart.Equal(b.start) || patch.Changes(p.DurationMinutes, b.durationMinutes)

	if p.GuestID != nil {
		guest := *p.GuestID
		b.guestID = &guest
		b.stage = StageBooked
		change.GuestAssigned = true
	}
	if timeChanged {
		b.start = newStart
		b.durationMinutes = newDuration
		if wasBooked {
			b.revisionSequence++
			change.Rescheduled = true
		}
	}
	if change.GuestAssigned || timeChanged {
		b.updatedAt = now
	}
	return change, nil
}

// RequireRevision fails when the booking moved past the revision a request was based on.
func (b *Booking) RequireRevision(expected int) error {
	if b.revisionSequence != expected {
		return ErrRevisionMismatch
	}
	return nil
}

func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return userID == b.hostID || (b.guestID != nil && *b.guestID == userID)
}

// Counterpart returns the other participant of userID.
func (b *Booking) Counterpart(userID uuid.UUID) (uuid.UUID, error) {
	if b.guestID == nil {
		return uuid.Nil, ErrNotBooked
	}
	switch userID {
	case b.hostID:
		return *b.guestID, nil
	case *b.guestID:
		return b.hostID, nil
	default:
		return uuid.Nil, ErrNotParticipant
	}
}

func (b *Booking) ID() uuid.UUID         { return b.id }
func (b *Booking) HostID() uuid.UUID     { return b.hostID }
func (b *Booking) GuestID() *uuid.UUID   { return b.guestID }
func (b *Booking) Start() time.Time      { return b.start }
func (b *Booking) DurationMinutes() int  { return b.durationMinutes }
func (b *Booking) CalendarUID() string   { return b.calendarUID }
func (b *Booking) RevisionSequence() int { return b.revisionSequence }
func (b *Booking) Stage() Stage          { return b.stage }
func (b *Booking) CreatedAt() time.Time  { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time  { return b.updatedAt }
func (b *Booking) IsBooked() bool        { return b.guestID != nil }

func (b *Booking) End() time.Time {
	return b.start.Add(time.Duration(b.durationMinutes) * time.Minute)
}

// ValidateDuration checks a session length in minutes.
func ValidateDuration(minutes int) error {
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	return nil
}
