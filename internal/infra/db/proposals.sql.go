package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const proposalColumns = `id, seq, booking_id, negotiation_id, proposed_by, proposer_email,
       proposed_start_utc, proposed_end_utc, note, status, decided_by_role,
       base_revision, created_at, decided_at`

func scanProposal(row interface{ Scan(dest ...any) error }) (RescheduleProposals, error) {
	var p RescheduleProposals
	err := row.Scan(
		&p.ID, &p.Seq, &p.BookingID, &p.NegotiationID, &p.ProposedBy, &p.ProposerEmail,
		&p.ProposedStartUtc, &p.ProposedEndUtc, &p.Note, &p.Status, &p.DecidedByRole,
		&p.BaseRevision, &p.CreatedAt, &p.DecidedAt,
	)
	return p, err
}

const createProposal = `
INSERT INTO reschedule_proposals (id, booking_id, negotiation_id, proposed_by, proposer_email,
                                  proposed_start_utc, proposed_end_utc, note, status,
                                  base_revision, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, $10)
RETURNING ` + proposalColumns

type CreateProposalParams struct {
	ID               uuid.UUID
	BookingID        uuid.UUID
	NegotiationID    uuid.UUID
	ProposedBy       string
	ProposerEmail    string
	ProposedStartUtc time.Time
	ProposedEndUtc   time.Time
	Note             pgtype.Text
	BaseRevision     int32
	CreatedAt        time.Time
}

func (q *Queries) CreateProposal(ctx context.Context, db DBTX, arg CreateProposalParams) (RescheduleProposals, error) {
	return scanProposal(db.QueryRow(ctx, createProposal,
		arg.ID, arg.BookingID, arg.NegotiationID, arg.ProposedBy, arg.ProposerEmail,
		arg.ProposedStartUtc, arg.ProposedEndUtc, arg.Note, arg.BaseRevision, arg.CreatedAt,
	))
}

const getProposal = `SELECT ` + proposalColumns + ` FROM reschedule_proposals WHERE id = $1`

func (q *Queries) GetProposal(ctx context.Context, db DBTX, id uuid.UUID) (RescheduleProposals, error) {
	return scanProposal(db.QueryRow(ctx, getProposal, id))
}

const getLatestProposal = `SELECT ` + proposalColumns + `
FROM reschedule_proposals
WHERE negotiation_id = $1
ORDER BY seq DESC
LIMIT 1`

func (q *Queries) GetLatestProposal(ctx context.Context, db DBTX, negotiationID uuid.UUID) (RescheduleProposals, error) {
	return scanProposal(db.QueryRow(ctx, getLatestProposal, negotiationID))
}

const getLatestPendingProposal = `SELECT ` + proposalColumns + `
FROM reschedule_proposals
WHERE negotiation_id = $1 AND status = 'pending'
ORDER BY seq DESC
LIMIT 1`

func (q *Queries) GetLatestPendingProposal(ctx context.Context, db DBTX, negotiationID uuid.UUID) (RescheduleProposals, error) {
	return scanProposal(db.QueryRow(ctx, getLatestPendingProposal, negotiationID))
}

const getLatestProposalForBooking = `SELECT ` + proposalColumns + `
FROM reschedule_proposals
WHERE booking_id = $1
ORDER BY seq DESC
LIMIT 1`

func (q *Queries) GetLatestProposalForBooking(ctx context.Context, db DBTX, bookingID uuid.UUID) (RescheduleProposals, error) {
	return scanProposal(db.QueryRow(ctx, getLatestProposalForBooking, bookingID))
}

const decideProposal = `
UPDATE reschedule_proposals
SET status = $2, decided_by_role = $3, decided_at = $4
WHERE id = $1 AND status = 'pending'`

type DecideProposalParams struct {
	ID            uuid.UUID
	Status        string
	DecidedByRole string
	DecidedAt     time.Time
}

// DecideProposal affects zero rows when the proposal is no longer pending.
func (q *Queries) DecideProposal(ctx context.Context, db DBTX, arg DecideProposalParams) (int64, error) {
	tag, err := db.Exec(ctx, decideProposal, arg.ID, arg.Status, arg.DecidedByRole, arg.DecidedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
