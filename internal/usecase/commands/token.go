package commands

import (
	"context"
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrTokenPurpose     = errs.Mark(errs.New("link cannot be used for this action"), errs.ErrInvalidToken)
	ErrTokenExpired     = errs.Mark(errs.New("link has expired"), errs.ErrExpiredToken)
	ErrTokenUsed        = errs.Mark(errs.New("link was already used"), errs.ErrTokenAlreadyUsed)
	ErrTokenNoProposal  = errs.Mark(errs.New("decision link names no proposal"), errs.ErrInvalidToken)
	ErrInvalidTokenTTL  = errs.Mark(errs.New("link lifetime must be positive"), errs.ErrConfiguration)
	ErrMissingTokenRole = errs.Mark(errs.New("link actor role is invalid"), errs.ErrInvalidInput)
)

type IssueParams struct {
	NegotiationID uuid.UUID
	BookingID     uuid.UUID
	ProposalID    *uuid.UUID
	ActorEmail    string
	ActorRole     negotiation.Role
	Purpose       captoken.Purpose
	TTL           time.Duration
	// Nonce and IssuedAt pin the token so a retried transaction mints the same one.
	Nonce    string
	IssuedAt time.Time
}

// IssuedToken is a signed token together with the claims it carries.
type IssuedToken struct {
	Token  string
	Claims captoken.Claims
}

func (t *IssuedToken) ExpiresAt() time.Time {
	return t.Claims.ExpiresAtTime()
}

// TokenService mints capability tokens and keeps their single-use LinkRecords.
type TokenService struct {
	signer *captoken.Signer
	clock  clock.Clock
}

func NewTokenService(signer *captoken.Signer, clk clock.Clock) *TokenService {
	return &TokenService{signer: signer, clock: clk}
}

// Mint signs a token without persisting anything.
func (s *TokenService) Mint(p IssueParams) (*IssuedToken, error) {
	if p.TTL <= 0 {
		return nil, ErrInvalidTokenTTL
	}
	if !p.ActorRole.IsValid() {
		return nil, ErrMissingTokenRole
	}
	now := s.clock.Now()
	if !p.IssuedAt.IsZero() {
		now = p.IssuedAt
	}
	nonce := p.Nonce
	if nonce == "" {
		nonce = uuid.NewString()
	}
	claims := captoken.Claims{
		NegotiationID: p.NegotiationID,
		BookingID:     p.BookingID,
		ProposalID:    p.ProposalID,
		ActorEmail:    p.ActorEmail,
		ActorRole:     p.ActorRole,
		Purpose:       p.Purpose,
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(p.TTL).Unix(),
		Nonce:         nonce,
	}
	token, err := s.signer.Sign(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, Claims: claims}, nil
}

// Persist stores the LinkRecord of a minted token. Inserting the same token twice is a no-op.
func (s *TokenService) Persist(ctx context.Context, tx shared.Tx, t *IssuedToken) error {
	return tx.Links().Create(ctx, tx.DB(), shared.LinkRecord{
		Hash:          captoken.Hash(t.Token),
		Purpose:       t.Claims.Purpose,
		NegotiationID: t.Claims.NegotiationID,
		BookingID:     t.Claims.BookingID,
		ProposalID:    t.Claims.ProposalID,
		ActorEmail:    t.Claims.ActorEmail,
		ActorRole:     t.Claims.ActorRole,
		ExpiresAt:     t.ExpiresAt(),
		CreatedAt:     s.clock.Now(),
	})
}

func (s *TokenService) Issue(ctx context.Context, tx shared.Tx, p IssueParams) (*IssuedToken, error) {
	t, err := s.Mint(p)
	if err != nil {
		return nil, err
	}
	if err := s.Persist(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Verify checks signature, purpose and expiry, then that the stored link is still active.
// It does not consume the link.
func (s *TokenService) Verify(ctx context.Context, tx shared.Tx, token string, purpose captoken.Purpose) (*captoken.Claims, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenPurpose
	}
	if purpose == captoken.PurposeDecide && claims.ProposalID == nil {
		return nil, ErrTokenNoProposal
	}
	now := s.clock.Now()
	if claims.Expired(now) {
		return nil, ErrTokenExpired
	}

	link, err := tx.Links().Get(ctx, tx.DB(), captoken.Hash(token))
	if err != nil {
		if errs.Is(err, errs.ErrNotFound) {
			return nil, ErrTokenUsed
		}
		return nil, err
	}
	if link.UsedAt != nil {
		return nil, ErrTokenUsed
	}
	if link.Expired(now) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// Consume marks the link used. Only one caller can win; the rest get ErrTokenUsed.
func (s *TokenService) Consume(ctx context.Context, tx shared.Tx, token string) error {
	ok, err := tx.Links().Consume(ctx, tx.DB(), captoken.Hash(token), s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenUsed
	}
	return nil
}
