package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createLink = `
INSERT INTO reschedule_links (hash, purpose, negotiation_id, booking_id, proposal_id,
                              actor_email, actor_role, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (hash) DO NOTHING`

type CreateLinkParams struct {
	Hash          string
	Purpose       string
	NegotiationID uuid.UUID
	BookingID     uuid.UUID
	ProposalID    pgtype.UUID
	ActorEmail    string
	ActorRole     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

func (q *Queries) CreateLink(ctx context.Context, db DBTX, arg CreateLinkParams) (int64, error) {
	tag, err := db.Exec(ctx, createLink,
		arg.Hash, arg.Purpose, arg.NegotiationID, arg.BookingID, arg.ProposalID,
		arg.ActorEmail, arg.ActorRole, arg.ExpiresAt, arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const getLink = `
SELECT hash, purpose, negotiation_id, booking_id, proposal_id, actor_email, actor_role,
       expires_at, used_at, created_at
FROM reschedule_links
WHERE hash = $1`

func (q *Queries) GetLink(ctx context.Context, db DBTX, hash string) (RescheduleLinks, error) {
	var l RescheduleLinks
	err := db.QueryRow(ctx, getLink, hash).Scan(
		&l.Hash, &l.Purpose, &l.NegotiationID, &l.BookingID, &l.ProposalID, &l.ActorEmail,
		&l.ActorRole, &l.ExpiresAt, &l.UsedAt, &l.CreatedAt,
	)
	return l, err
}

const consumeLink = `
UPDATE reschedule_links
SET used_at = $2
WHERE hash = $1 AND used_at IS NULL AND expires_at > $2`

// ConsumeLink affects one row for exactly one caller per link.
func (q *Queries) ConsumeLink(ctx context.Context, db DBTX, hash string, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, consumeLink, hash, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
