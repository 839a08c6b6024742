package repository

import (
	"context"
	"time"

	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/pkg/pgconv"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type NotificationQueries interface {
	ClaimNotification(ctx context.Context, db db.DBTX, arg db.ClaimNotificationParams) (db.NotificationSends, error)
	GetNotificationByKey(ctx context.Context, db db.DBTX, key string) (db.NotificationSends, error)
	RecordNotificationAttempt(ctx context.Context, db db.DBTX, id uuid.UUID, lastError pgtype.Text, now time.Time) error
	MarkNotificationSent(ctx context.Context, db db.DBTX, id uuid.UUID, providerMessageID string, now time.Time) (int64, error)
	MarkNotificationFailed(ctx context.Context, db db.DBTX, id uuid.UUID, lastError string, now time.Time) (int64, error)
}

type NotificationRepository struct {
	queries NotificationQueries
}

func NewNotificationRepository(queries NotificationQueries) *NotificationRepository {
	return &NotificationRepository{queries: queries}
}

func (r *NotificationRepository) Claim(ctx context.Context, tx db.DBTX, params shared.ClaimParams) (*shared.SendRecord, bool, error) {
	row, err := r.queries.ClaimNotification(ctx, tx, db.ClaimNotificationParams{
		ID:             uuid.New(),
		IdempotencyKey: params.IdempotencyKey,
		Recipient:      params.Recipient,
		Kind:           params.Kind,
		Now:            params.Now,
		LeaseCutoff:    params.LeaseCutoff,
	})
	if err == nil {
		return sendRecordFromRow(row), true, nil
	}
	if !pgconv.IsNoRows(err) {
		return nil, false, infra.WrapRepoErr("failed to claim notification", err)
	}

	existing, err := r.queries.GetNotificationByKey(ctx, tx, params.IdempotencyKey)
	if err != nil {
		return nil, false, infra.WrapRepoErr("failed to read notification claim", err)
	}
	return sendRecordFromRow(existing), false, nil
}

func (r *NotificationRepository) RecordAttempt(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError *string, now time.Time) error {
	if err := r.queries.RecordNotificationAttempt(ctx, tx, id, pgconv.StringPtrToPgtype(lastError), now); err != nil {
		return infra.WrapRepoErr("failed to record notification attempt", err)
	}
	return nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, tx db.DBTX, id uuid.UUID, providerMessageID string, now time.Time) error {
	affected, err := r.queries.MarkNotificationSent(ctx, tx, id, providerMessageID, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification sent", err)
	}
	if affected == 0 {
		return infra.WrapRepoErr("claimed notification not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError string, now time.Time) error {
	affected, err := r.queries.MarkNotificationFailed(ctx, tx, id, lastError, now)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification failed", err)
	}
	if affected == 0 {
		return infra.WrapRepoErr("claimed notification not found", nil, infra.KindNotFound)
	}
	return nil
}

func sendRecordFromRow(row db.NotificationSends) *shared.SendRecord {
	return &shared.SendRecord{
		ID:                row.ID,
		IdempotencyKey:    row.IdempotencyKey,
		Recipient:         row.Recipient,
		Kind:              row.Kind,
		Status:            shared.SendStatus(row.Status),
		AttemptCount:      int(row.AttemptCount),
		ProviderMessageID: pgconv.StringPtrFromPgtype(row.ProviderMessageID),
		LastError:         pgconv.StringPtrFromPgtype(row.LastError),
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}
