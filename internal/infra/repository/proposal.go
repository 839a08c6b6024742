package repository

import (
	"context"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/infra/repository/converter"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/pgconv"

	"github.com/google/uuid"
)

var (
	ErrPendingExists  = errs.Mark(errs.New("negotiation already has a pending proposal"), errs.ErrAlreadyDecided)
	ErrDecisionNotSet = errs.New("proposal has no decision to persist")
)

type ProposalQueries interface {
	CreateProposal(ctx context.Context, db db.DBTX, arg db.CreateProposalParams) (db.RescheduleProposals, error)
	GetProposal(ctx context.Context, db db.DBTX, id uuid.UUID) (db.RescheduleProposals, error)
	GetLatestProposal(ctx context.Context, db db.DBTX, negotiationID uuid.UUID) (db.RescheduleProposals, error)
	GetLatestPendingProposal(ctx context.Context, db db.DBTX, negotiationID uuid.UUID) (db.RescheduleProposals, error)
	GetLatestProposalForBooking(ctx context.Context, db db.DBTX, bookingID uuid.UUID) (db.RescheduleProposals, error)
	DecideProposal(ctx context.Context, db db.DBTX, arg db.DecideProposalParams) (int64, error)
}

type ProposalRepository struct {
	queries ProposalQueries
}

func NewProposalRepository(queries ProposalQueries) *ProposalRepository {
	return &ProposalRepository{queries: queries}
}

func (r *ProposalRepository) Create(ctx context.Context, tx db.DBTX, p *negotiation.Proposal) error {
	if _, err := r.queries.CreateProposal(ctx, tx, converter.ProposalToCreateParams(p)); err != nil {
		if pgconv.IsUniqueViolation(err) {
			// reschedule_proposals_one_pending
			return errs.Combine(ErrPendingExists, infra.WrapRepoErr("failed to create proposal", err))
		}
		return infra.WrapRepoErr("failed to create proposal", err)
	}
	return nil
}

func (r *ProposalRepository) Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*negotiation.Proposal, error) {
	row, err := r.queries.GetProposal(ctx, tx, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get proposal", err)
	}
	return converter.ProposalFromRow(row), nil
}

func (r *ProposalRepository) Latest(ctx context.Context, tx db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error) {
	return optionalProposal(r.queries.GetLatestProposal(ctx, tx, negotiationID))
}

func (r *ProposalRepository) LatestPending(ctx context.Context, tx db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error) {
	return optionalProposal(r.queries.GetLatestPendingProposal(ctx, tx, negotiationID))
}

func (r *ProposalRepository) LatestForBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*negotiation.Proposal, error) {
	return optionalProposal(r.queries.GetLatestProposalForBooking(ctx, tx, bookingID))
}

func (r *ProposalRepository) Decide(ctx context.Context, tx db.DBTX, p *negotiation.Proposal) error {
	if p.DecidedBy() == nil || p.DecidedAt() == nil {
		return ErrDecisionNotSet
	}
	affected, err := r.queries.DecideProposal(ctx, tx, db.DecideProposalParams{
		ID:            p.ID(),
		Status:        string(p.Status()),
		DecidedByRole: string(*p.DecidedBy()),
		DecidedAt:     *p.DecidedAt(),
	})
	if err != nil {
		return infra.WrapRepoErr("failed to decide proposal", err)
	}
	if affected == 0 {
		return negotiation.ErrNotPending
	}
	return nil
}

func optionalProposal(row db.RescheduleProposals, err error) (*negotiation.Proposal, error) {
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to get latest proposal", err)
	}
	return converter.ProposalFromRow(row), nil
}
