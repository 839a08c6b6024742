//go:build unit || e2e || integration

package builder

import (
	"practice-hub/internal/domain/user"

	"github.com/google/uuid"
)

type ContactBuilder struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

func NewContactBuilder() *ContactBuilder {
	return &ContactBuilder{
		ID:          uuid.New(),
		Email:       "test@example.com",
		DisplayName: "Test User",
	}
}

func (c *ContactBuilder) With(mutate func(*ContactBuilder)) *ContactBuilder {
	mutate(c)
	return c
}

func (c *ContactBuilder) BuildDomain() (*user.Contact, error) {
	return user.NewContact(c.ID, c.Email, c.DisplayName)
}

func (c *ContactBuilder) WithEmail(email string) *ContactBuilder {
	c.Email = email
	return c
}

func (c *ContactBuilder) WithDisplayName(name string) *ContactBuilder {
	c.DisplayName = name
	return c
}
