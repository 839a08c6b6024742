package shared

import (
	"context"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single statements on the pool, each in its own implicit transaction
	WithDB(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Bookings() BookingRepository
	Proposals() ProposalRepository
	Links() LinkRepository
	Notifications() NotificationRepository
	Users() UserDirectory
	DB() db.DBTX
}

// BookingGuard is the state an update was computed from. The write only
// lands if the stored row still matches it.
type BookingGuard struct {
	Revision int
	GuestID  *uuid.UUID
}

type BookingRepository interface {
	Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	ListByParticipant(ctx context.Context, tx db.DBTX, userID uuid.UUID, limit int) ([]*booking.Booking, error)
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error
	Update(ctx context.Context, tx db.DBTX, b *booking.Booking, guard BookingGuard) error
	Delete(ctx context.Context, tx db.DBTX, id uuid.UUID) error
}

type ProposalRepository interface {
	Create(ctx context.Context, tx db.DBTX, p *negotiation.Proposal) error
	Get(ctx context.Context, tx db.DBTX, id uuid.UUID) (*negotiation.Proposal, error)
	// Latest returns nil when the negotiation has no proposal.
	Latest(ctx context.Context, tx db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error)
	LatestPending(ctx context.Context, tx db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error)
	LatestForBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*negotiation.Proposal, error)
	// Decide persists the decision of p, failing when the stored row is no longer pending.
	Decide(ctx context.Context, tx db.DBTX, p *negotiation.Proposal) error
}

type LinkRepository interface {
	// Create is insert-if-absent on the hash.
	Create(ctx context.Context, tx db.DBTX, link LinkRecord) error
	Get(ctx context.Context, tx db.DBTX, hash string) (*LinkRecord, error)
	// Consume reports false when the link was already used or has expired.
	Consume(ctx context.Context, tx db.DBTX, hash string, now time.Time) (bool, error)
}

type NotificationRepository interface {
	// Claim takes the key for this caller. When it cannot, it returns the
	// existing record and claimed=false.
	Claim(ctx context.Context, tx db.DBTX, params ClaimParams) (rec *SendRecord, claimed bool, err error)
	RecordAttempt(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError *string, now time.Time) error
	MarkSent(ctx context.Context, tx db.DBTX, id uuid.UUID, providerMessageID string, now time.Time) error
	MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, lastError string, now time.Time) error
}

type UserDirectory interface {
	Contact(ctx context.Context, tx db.DBTX, id uuid.UUID) (*user.Contact, error)
}
