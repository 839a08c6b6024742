package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Users struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	CreatedAt   time.Time
}

type Bookings struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	GuestID          pgtype.UUID
	StartUtc         time.Time
	EndUtc           time.Time
	DurationMinutes  int32
	CalendarUID      string
	RevisionSequence int32
	Stage            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RescheduleProposals struct {
	ID               uuid.UUID
	Seq              int64
	BookingID        uuid.UUID
	NegotiationID    uuid.UUID
	ProposedBy       string
	ProposerEmail    string
	ProposedStartUtc time.Time
	ProposedEndUtc   time.Time
	Note             pgtype.Text
	Status           string
	DecidedByRole    pgtype.Text
	BaseRevision     int32
	CreatedAt        time.Time
	DecidedAt        pgtype.Timestamptz
}

type RescheduleLinks struct {
	Hash          string
	Purpose       string
	NegotiationID uuid.UUID
	BookingID     uuid.UUID
	ProposalID    pgtype.UUID
	ActorEmail    string
	ActorRole     string
	ExpiresAt     time.Time
	UsedAt        pgtype.Timestamptz
	CreatedAt     time.Time
}

type NotificationSends struct {
	ID                uuid.UUID
	IdempotencyKey    string
	Recipient         string
	Kind              string
	Status            string
	AttemptCount      int32
	ProviderMessageID pgtype.Text
	LastError         pgtype.Text
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
