package repository

import (
	"context"
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/pgconv"
	"practice-hub/internal/usecase/shared"
)

type LinkQueries interface {
	CreateLink(ctx context.Context, db db.DBTX, arg db.CreateLinkParams) (int64, error)
	GetLink(ctx context.Context, db db.DBTX, hash string) (db.RescheduleLinks, error)
	ConsumeLink(ctx context.Context, db db.DBTX, hash string, now time.Time) (int64, error)
}

type LinkRepository struct {
	queries LinkQueries
}

func NewLinkRepository(queries LinkQueries) *LinkRepository {
	return &LinkRepository{queries: queries}
}

func (r *LinkRepository) Create(ctx context.Context, tx db.DBTX, link shared.LinkRecord) error {
	_, err := r.queries.CreateLink(ctx, tx, db.CreateLinkParams{
		Hash:          link.Hash,
		Purpose:       string(link.Purpose),
		NegotiationID: link.NegotiationID,
		BookingID:     link.BookingID,
		ProposalID:    pgconv.UUIDPtrToPgtype(link.ProposalID),
		ActorEmail:    link.ActorEmail,
		ActorRole:     string(link.ActorRole),
		ExpiresAt:     link.ExpiresAt,
		CreatedAt:     link.CreatedAt,
	})
	if err != nil {
		return infra.WrapRepoErr("failed to create link record", err)
	}
	return nil
}

func (r *LinkRepository) Get(ctx context.Context, tx db.DBTX, hash string) (*shared.LinkRecord, error) {
	row, err := r.queries.GetLink(ctx, tx, hash)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get link record", err)
	}
	return &shared.LinkRecord{
		Hash:          row.Hash,
		Purpose:       captoken.Purpose(row.Purpose),
		NegotiationID: row.NegotiationID,
		BookingID:     row.BookingID,
		ProposalID:    pgconv.UUIDPtrFromPgtype(row.ProposalID),
		ActorEmail:    row.ActorEmail,
		ActorRole:     negotiation.Role(row.ActorRole),
		ExpiresAt:     row.ExpiresAt.UTC(),
		UsedAt:        pgconv.TimePtrFromPgtype(row.UsedAt),
		CreatedAt:     row.CreatedAt.UTC(),
	}, nil
}

func (r *LinkRepository) Consume(ctx context.Context, tx db.DBTX, hash string, now time.Time) (bool, error) {
	affected, err := r.queries.ConsumeLink(ctx, tx, hash, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to consume link record", err)
	}
	return affected == 1, nil
}
