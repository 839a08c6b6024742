package request

import (
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	StartTime       time.Time `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=5,max=480"`
}

func (r CreateBookingRequest) ToInput() commands.CreateBookingInput {
	return commands.CreateBookingInput{
		Start:           r.StartTime.UTC(),
		DurationMinutes: r.DurationMinutes,
	}
}

// UpdateBookingRequest is a partial update; absent fields are left alone.
// A guest books an open session by sending book=true.
type UpdateBookingRequest struct {
	StartTime       *time.Time `json:"start_time"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Book            bool       `json:"book"`
}

func (r UpdateBookingRequest) ToPatch(actorID uuid.UUID) booking.Patch {
	var p booking.Patch
	if r.StartTime != nil {
		start := r.StartTime.UTC()
		p.Start = &start
	}
	p.DurationMinutes = r.DurationMinutes
	if r.Book {
		p.GuestID = &actorID
	}
	return p
}
