package db

import (
	"context"

	"github.com/google/uuid"
)

const getUser = `SELECT id, email, display_name, role, created_at FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, db DBTX, id uuid.UUID) (Users, error) {
	var u Users
	err := db.QueryRow(ctx, getUser, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt)
	return u, err
}
