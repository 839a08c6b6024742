package usecase

import (
	"practice-hub/internal/domain/user"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/jwt"

	"github.com/google/uuid"
)

// TokenValidator resolves the session token of a logged-in participant.
// Capability links never pass through here.
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, user.Role, error)
}

type sessionValidator struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return sessionValidator{jwtService: jwtService}
}

func (v sessionValidator) ValidateToken(tokenString string) (uuid.UUID, user.Role, error) {
	claims, err := v.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", errs.Wrap(err, "session token")
	}
	role, err := user.NewRole(claims.Role)
	if err != nil {
		return uuid.Nil, "", errs.Wrapf(err, "session token for %s", claims.UserID)
	}
	return claims.UserID, role, nil
}
