package response

import (
	"time"

	"practice-hub/internal/usecase/commands"

	"github.com/google/uuid"
)

type ProposeResponse struct {
	OK            bool       `json:"ok"`
	ProposalID    uuid.UUID  `json:"proposalId"`
	NegotiationID uuid.UUID  `json:"negotiationId"`
	Superseded    *uuid.UUID `json:"supersededProposalId,omitempty"`
}

func FromProposeResult(r *commands.ProposeResult) *ProposeResponse {
	return &ProposeResponse{
		OK:            true,
		ProposalID:    r.ProposalID,
		NegotiationID: r.NegotiationID,
		Superseded:    r.Superseded,
	}
}

type DecideResponse struct {
	OK           bool                  `json:"ok"`
	Action       string                `json:"action"`
	ProposalID   uuid.UUID             `json:"proposalId"`
	Counter      *ProposeResponse      `json:"counter,omitempty"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}

func FromDecideResult(r *commands.DecideResult) *DecideResponse {
	res := &DecideResponse{
		OK:           true,
		Action:       string(r.Action),
		ProposalID:   r.ProposalID,
		Notification: FromNotifyResult(r.Notification),
	}
	if r.Counter != nil {
		res.Counter = FromProposeResult(r.Counter)
	}
	return res
}

type DecisionPreviewResponse struct {
	ProposalID    uuid.UUID `json:"proposalId"`
	BookingID     uuid.UUID `json:"bookingId"`
	ProposedBy    string    `json:"proposedBy"`
	ProposerEmail string    `json:"proposerEmail"`
	ProposedStart time.Time `json:"proposedStartUtc"`
	ProposedEnd   time.Time `json:"proposedEndUtc"`
	Note          *string   `json:"note,omitempty"`
	CurrentStart  time.Time `json:"currentStartUtc"`
	CurrentEnd    time.Time `json:"currentEndUtc"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Actionable    bool      `json:"actionable"`
}

func FromDecisionPreview(p *commands.DecisionPreview) *DecisionPreviewResponse {
	return &DecisionPreviewResponse{
		ProposalID:    p.ProposalID,
		BookingID:     p.BookingID,
		ProposedBy:    string(p.ProposedBy),
		ProposerEmail: p.ProposerEmail,
		ProposedStart: p.ProposedStart,
		ProposedEnd:   p.ProposedEnd,
		Note:          p.Note,
		CurrentStart:  p.CurrentStart,
		CurrentEnd:    p.CurrentEnd,
		ExpiresAt:     p.ExpiresAt,
		Actionable:    p.Actionable,
	}
}
