//go:build unit || e2e || integration

package builder

import (
	"time"

	"practice-hub/internal/domain/negotiation"

	"github.com/google/uuid"
)

type ProposalBuilder struct {
	BookingID     uuid.UUID
	NegotiationID uuid.UUID
	ProposedBy    negotiation.Role
	ProposerEmail string
	Start         time.Time
	End           time.Time
	Note          *string
	BaseRevision  int
	Now           time.Time
}

func NewProposalBuilder() *ProposalBuilder {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	start := now.Add(72 * time.Hour)
	return &ProposalBuilder{
		BookingID:     uuid.New(),
		NegotiationID: uuid.New(),
		ProposedBy:    negotiation.RoleInitiator,
		ProposerEmail: "host@example.com",
		Start:         start,
		End:           start.Add(45 * time.Minute),
		Now:           now,
	}
}

func (p *ProposalBuilder) With(mutate func(*ProposalBuilder)) *ProposalBuilder {
	mutate(p)
	return p
}

func (p *ProposalBuilder) BuildDomain() (*negotiation.Proposal, error) {
	return negotiation.NewProposal(negotiation.NewProposalParams{
		BookingID:     p.BookingID,
		NegotiationID: p.NegotiationID,
		ProposedBy:    p.ProposedBy,
		ProposerEmail: p.ProposerEmail,
		Start:         p.Start,
		End:           p.End,
		Note:          p.Note,
		BaseRevision:  p.BaseRevision,
	}, p.Now)
}

// MustBuild panics on validation errors; use it only with valid fixtures.
func (p *ProposalBuilder) MustBuild() *negotiation.Proposal {
	proposal, err := p.BuildDomain()
	if err != nil {
		panic(err)
	}
	return proposal
}

func (p *ProposalBuilder) WithNote(note string) *ProposalBuilder {
	p.Note = &note
	return p
}

func (p *ProposalBuilder) WithSlot(start, end time.Time) *ProposalBuilder {
	p.Start = start
	p.End = end
	return p
}

func (p *ProposalBuilder) WithProposer(role negotiation.Role, email string) *ProposalBuilder {
	p.ProposedBy = role
	p.ProposerEmail = email
	return p
}

func (p *ProposalBuilder) WithNegotiation(bookingID, negotiationID uuid.UUID) *ProposalBuilder {
	p.BookingID = bookingID
	p.NegotiationID = negotiationID
	return p
}
