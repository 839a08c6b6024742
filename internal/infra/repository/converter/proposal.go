package converter

import (
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/pkg/pgconv"
)

func ProposalFromRow(row db.RescheduleProposals) *negotiation.Proposal {
	var decidedBy *negotiation.Role
	if row.DecidedByRole.Valid {
		role := negotiation.Role(row.DecidedByRole.String)
		decidedBy = &role
	}
	return negotiation.ReconstructProposal(
		row.ID, row.BookingID, row.NegotiationID,
		negotiation.Role(row.ProposedBy), row.ProposerEmail,
		row.ProposedStartUtc, row.ProposedEndUtc, pgconv.StringPtrFromPgtype(row.Note),
		negotiation.Status(row.Status), decidedBy, int(row.BaseRevision),
		row.CreatedAt.UTC(), pgconv.TimePtrFromPgtype(row.DecidedAt),
	)
}

func ProposalToCreateParams(p *negotiation.Proposal) db.CreateProposalParams {
	return db.CreateProposalParams{
		ID:               p.ID(),
		BookingID:        p.BookingID(),
		NegotiationID:    p.NegotiationID(),
		ProposedBy:       string(p.ProposedBy()),
		ProposerEmail:    p.ProposerEmail(),
		ProposedStartUtc: p.Slot().Start(),
		ProposedEndUtc:   p.Slot().End(),
		Note:             pgconv.StringPtrToPgtype(p.Note()),
		BaseRevision:     pgconv.IntToInt32(p.BaseRevision()),
		CreatedAt:        p.CreatedAt(),
	}
}
