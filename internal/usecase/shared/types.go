package shared

import (
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/captoken"

	"github.com/google/uuid"
)

// LinkRecord is the stored side of a capability token.
type LinkRecord struct {
	Hash          string
	Purpose       captoken.Purpose
	NegotiationID uuid.UUID
	BookingID     uuid.UUID
	ProposalID    *uuid.UUID
	ActorEmail    string
	ActorRole     negotiation.Role
	ExpiresAt     time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}

func (l LinkRecord) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

type SendStatus string

const (
	SendStatusClaimed SendStatus = "claimed"
	SendStatusSent    SendStatus = "sent"
	SendStatusFailed  SendStatus = "failed"
)

type SendRecord struct {
	ID                uuid.UUID
	IdempotencyKey    string
	Recipient         string
	Kind              string
	Status            SendStatus
	AttemptCount      int
	ProviderMessageID *string
	LastError         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ClaimParams struct {
	IdempotencyKey string
	Recipient      string
	Kind           string
	Now            time.Time
	// LeaseCutoff: claimed records last touched before it are considered abandoned.
	LeaseCutoff time.Time
}
