package user

import (
	"regexp"
	"strings"

	"practice-hub/internal/pkg/errs"
)

var (
	ErrInvalidEmail = errs.Mark(errs.New("invalid email format"), errs.ErrInvalidInput)
	ErrInvalidRole  = errs.Mark(errs.New("invalid role"), errs.ErrInvalidInput)
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type Email struct {
	value string
}

func NewEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if !emailRegex.MatchString(s) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: s}, nil
}

func (e Email) Value() string {
	return e.value
}

// Matches compares addresses case-insensitively.
func (e Email) Matches(other string) bool {
	return strings.EqualFold(e.value, strings.TrimSpace(other))
}
