package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const notificationColumns = `id, idempotency_key, recipient, kind, status, attempt_count,
       provider_message_id, last_error, created_at, updated_at`

func scanNotification(row interface{ Scan(dest ...any) error }) (NotificationSends, error) {
	var n NotificationSends
	err := row.Scan(
		&n.ID, &n.IdempotencyKey, &n.Recipient, &n.Kind, &n.Status, &n.AttemptCount,
		&n.ProviderMessageID, &n.LastError, &n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

// A failed row, or a claimed row whose lease ran out, can be taken over.
// Sent rows and live claims return no row.
const claimNotification = `
INSERT INTO notification_sends (id, idempotency_key, recipient, kind, status, attempt_count,
                                created_at, updated_at)
VALUES ($1, $2, $3, $4, 'claimed', 0, $5, $5)
ON CONFLICT (idempotency_key) DO UPDATE
SET status = 'claimed', last_error = NULL, updated_at = EXCLUDED.updated_at
WHERE notification_sends.status = 'failed'
   OR (notification_sends.status = 'claimed' AND notification_sends.updated_at < $6)
RETURNING ` + notificationColumns

type ClaimNotificationParams struct {
	ID             uuid.UUID
	IdempotencyKey string
	Recipient      string
	Kind           string
	Now            time.Time
	LeaseCutoff    time.Time
}

func (q *Queries) ClaimNotification(ctx context.Context, db DBTX, arg ClaimNotificationParams) (NotificationSends, error) {
	return scanNotification(db.QueryRow(ctx, claimNotification,
		arg.ID, arg.IdempotencyKey, arg.Recipient, arg.Kind, arg.Now, arg.LeaseCutoff,
	))
}

const getNotificationByKey = `SELECT ` + notificationColumns + `
FROM notification_sends
WHERE idempotency_key = $1`

func (q *Queries) GetNotificationByKey(ctx context.Context, db DBTX, key string) (NotificationSends, error) {
	return scanNotification(db.QueryRow(ctx, getNotificationByKey, key))
}

const recordNotificationAttempt = `
UPDATE notification_sends
SET attempt_count = attempt_count + 1, last_error = $2, updated_at = $3
WHERE id = $1 AND status = 'claimed'`

func (q *Queries) RecordNotificationAttempt(ctx context.Context, db DBTX, id uuid.UUID, lastError pgtype.Text, now time.Time) error {
	_, err := db.Exec(ctx, recordNotificationAttempt, id, lastError, now)
	return err
}

const markNotificationSent = `
UPDATE notification_sends
SET status = 'sent', provider_message_id = $2, last_error = NULL, updated_at = $3
WHERE id = $1 AND status = 'claimed'`

func (q *Queries) MarkNotificationSent(ctx context.Context, db DBTX, id uuid.UUID, providerMessageID string, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, markNotificationSent, id, providerMessageID, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const markNotificationFailed = `
UPDATE notification_sends
SET status = 'failed', last_error = $2, updated_at = $3
WHERE id = $1 AND status = 'claimed'`

func (q *Queries) MarkNotificationFailed(ctx context.Context, db DBTX, id uuid.UUID, lastError string, now time.Time) (int64, error) {
	tag, err := db.Exec(ctx, markNotificationFailed, id, lastError, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
