package repository

import (
	"context"

	"practice-hub/internal/domain/user"
	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"

	"github.com/google/uuid"
)

type UserQueries interface {
	GetUser(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Users, error)
}

// UserDirectory resolves participant ids to mail contacts.
type UserDirectory struct {
	queries UserQueries
}

func NewUserDirectory(queries UserQueries) *UserDirectory {
	return &UserDirectory{queries: queries}
}

func (r *UserDirectory) Contact(ctx context.Context, tx db.DBTX, id uuid.UUID) (*user.Contact, error) {
	row, err := r.queries.GetUser(ctx, tx, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to get user", err)
	}
	return user.NewContact(row.ID, row.Email, row.DisplayName)
}
