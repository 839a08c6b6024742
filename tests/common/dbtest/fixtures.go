//go:build unit || e2e

// Package dbtest seeds and resets the e2e database.
package dbtest

import (
	"context"
	"strings"
	"testing"
	"time"

	"practice-hub/internal/infra/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// tables owned by the service, truncated between subtests
var tables = []string{
	"notification_sends",
	"reschedule_links",
	"reschedule_proposals",
	"bookings",
	"users",
}

// CreateTestUser inserts a directory entry, returning the existing id when the email is taken.
func CreateTestUser(t *testing.T, conn db.DBTX, email, displayName, role string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := conn.QueryRow(context.Background(), `
		INSERT INTO users (id, email, display_name, role) VALUES ($1, $2, $3, $4)
		ON CONFLICT (lower(email)) DO UPDATE SET display_name = EXCLUDED.display_name
		RETURNING id`,
		uuid.New(), email, displayName, role).Scan(&id)
	require.NoError(t, err)
	return id
}

// CountSends returns how many ledger rows are in the given status.
func CountSends(t *testing.T, conn db.DBTX, status string) int {
	t.Helper()

	var n int
	err := conn.QueryRow(context.Background(), "SELECT count(*) FROM notification_sends WHERE status = $1", status).Scan(&n)
	require.NoError(t, err)
	return n
}

func ResetDB(conn db.DBTX) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := conn.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY")
	return err
}
