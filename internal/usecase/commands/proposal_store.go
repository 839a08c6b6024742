package commands

import (
	"context"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

// ProposalStore keeps the proposals of each negotiation thread. At most one
// proposal per negotiation is pending.
type ProposalStore struct {
	clock clock.Clock
}

func NewProposalStore(clk clock.Clock) *ProposalStore {
	return &ProposalStore{clock: clk}
}

func (s *ProposalStore) Create(ctx context.Context, tx shared.Tx, p negotiation.NewProposalParams) (*negotiation.Proposal, error) {
	proposal, err := negotiation.NewProposal(p, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := tx.Proposals().Create(ctx, tx.DB(), proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// GetLatestActive returns the pending proposal of a negotiation, or nil.
func (s *ProposalStore) GetLatestActive(ctx context.Context, tx shared.Tx, negotiationID uuid.UUID) (*negotiation.Proposal, error) {
	return tx.Proposals().LatestPending(ctx, tx.DB(), negotiationID)
}

// State derives the negotiation state from its newest proposal.
func (s *ProposalStore) State(ctx context.Context, tx shared.Tx, negotiationID uuid.UUID) (negotiation.State, *negotiation.Proposal, error) {
	latest, err := tx.Proposals().Latest(ctx, tx.DB(), negotiationID)
	if err != nil {
		return nil, nil, err
	}
	return negotiation.StateOf(latest), latest, nil
}

// Decide finalizes a pending proposal. A proposal that was decided
// concurrently fails with an AlreadyDecided error.
func (s *ProposalStore) Decide(ctx context.Context, tx shared.Tx, p *negotiation.Proposal, status negotiation.Status, by negotiation.Role) error {
	if err := p.Decide(status, by, s.clock.Now()); err != nil {
		return err
	}
	return tx.Proposals().Decide(ctx, tx.DB(), p)
}
