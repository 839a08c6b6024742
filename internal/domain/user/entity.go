package user

import (
	"strings"

	"github.com/google/uuid"
)

// Contact is the directory view of a user that notifications are addressed to.
// Profiles themselves are managed elsewhere.
type Contact struct {
	id          uuid.UUID
	email       Email
	displayName string
}

func NewContact(id uuid.UUID, email, displayName string) (*Contact, error) {
	e, err := NewEmail(email)
	if err != nil {
		return nil, err
	}
	return &Contact{
		id:          id,
		email:       e,
		displayName: strings.TrimSpace(displayName),
	}, nil
}

func (c *Contact) ID() uuid.UUID { return c.id }
func (c *Contact) Email() Email  { return c.email }

// DisplayName falls back to the local part of the address.
func (c *Contact) DisplayName() string {
	if c.displayName != "" {
		return c.displayName
	}
	local, _, _ := strings.Cut(c.email.Value(), "@")
	return local
}
