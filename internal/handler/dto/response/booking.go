package response

import (
	"time"

	"practice-hub/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID               uuid.UUID         `json:"id"`
	HostID           uuid.UUID         `json:"host_id"`
	GuestID          *uuid.UUID        `json:"guest_id,omitempty" copier:"-"`
	Start            time.Time         `json:"start_utc"`
	End              time.Time         `json:"end_utc"`
	DurationMinutes  int               `json:"duration_minutes"`
	RevisionSequence int               `json:"revision_sequence"`
	Stage            string            `json:"stage"`
	PendingProposal  *ProposalResponse `json:"pending_proposal,omitempty" copier:"-"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type ProposalResponse struct {
	ID            uuid.UUID `json:"id"`
	ProposedBy    string    `json:"proposed_by"`
	ProposerEmail string    `json:"proposer_email"`
	Start         time.Time `json:"start_utc"`
	End           time.Time `json:"end_utc"`
	Note          *string   `json:"note,omitempty" copier:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var res BookingResponse
	if err := copier.Copy(&res, v); err != nil {
		return nil, err
	}
	res.GuestID = v.GuestID
	if v.PendingProposal != nil {
		var p ProposalResponse
		if err := copier.Copy(&p, v.PendingProposal); err != nil {
			return nil, err
		}
		p.Note = v.PendingProposal.Note
		res.PendingProposal = &p
	}
	return &res, nil
}

func FromBookingViews(vs []queries.BookingView) ([]*BookingResponse, error) {
	res := make([]*BookingResponse, 0, len(vs))
	for i := range vs {
		r, err := FromBookingView(&vs[i])
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}
