package request

import (
	"strings"
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/usecase/commands"
)

type ProposeRequest struct {
	Token            string    `json:"token" binding:"required"`
	ProposedStartUTC time.Time `json:"proposedStartUtc" binding:"required"`
	ProposedEndUTC   time.Time `json:"proposedEndUtc" binding:"required"`
	Note             *string   `json:"note" binding:"omitempty,max=1000"`
}

func (r ProposeRequest) ToInput() commands.SlotInput {
	return slotInput(r.ProposedStartUTC, r.ProposedEndUTC, r.Note)
}

// ParticipantProposeRequest is a proposal from a logged-in participant.
type ParticipantProposeRequest struct {
	ProposedStartUTC time.Time `json:"proposedStartUtc" binding:"required"`
	ProposedEndUTC   time.Time `json:"proposedEndUtc" binding:"required"`
	Note             *string   `json:"note" binding:"omitempty,max=1000"`
}

func (r ParticipantProposeRequest) ToInput() commands.SlotInput {
	return slotInput(r.ProposedStartUTC, r.ProposedEndUTC, r.Note)
}

type DecideRequest struct {
	Token            string     `json:"token" binding:"required"`
	Action           string     `json:"action" binding:"required"`
	ProposedStartUTC *time.Time `json:"proposedStartUtc"`
	ProposedEndUTC   *time.Time `json:"proposedEndUtc"`
	Note             *string    `json:"note" binding:"omitempty,max=1000"`
}

// ToInput leaves a missing counter slot to the usecase, which rejects it for propose.
func (r DecideRequest) ToInput() (commands.DecideInput, error) {
	action, err := negotiation.NewAction(strings.ToLower(strings.TrimSpace(r.Action)))
	if err != nil {
		return commands.DecideInput{}, err
	}
	in := commands.DecideInput{Action: action}
	if action == negotiation.ActionPropose && r.ProposedStartUTC != nil && r.ProposedEndUTC != nil {
		slot := slotInput(*r.ProposedStartUTC, *r.ProposedEndUTC, r.Note)
		in.Counter = &slot
	}
	return in, nil
}

func slotInput(start, end time.Time, note *string) commands.SlotInput {
	in := commands.SlotInput{Start: start.UTC(), End: end.UTC()}
	if note != nil {
		if trimmed := strings.TrimSpace(*note); trimmed != "" {
			in.Note = &trimmed
		}
	}
	return in
}
