// Package captoken signs and parses emailed capability tokens.
//
// A token is base64url(JSON claims) + "." + hex(HMAC-SHA256(key, payload segment)).
// The HMAC key is derived from the configured secret with HKDF.
package captoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/errs"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const keyInfo = "capability-token/v1"

var (
	ErrMissingSecret    = errs.Mark(errs.New("capability token secret is not configured"), errs.ErrConfiguration)
	ErrMalformed        = errs.Mark(errs.New("malformed capability token"), errs.ErrInvalidToken)
	ErrInvalidSignature = errs.Mark(errs.New("capability token signature mismatch"), errs.ErrInvalidToken)
)

type Purpose string

const (
	PurposePropose Purpose = "propose"
	PurposeDecide  Purpose = "decide"
)

func (p Purpose) IsValid() bool {
	return p == PurposePropose || p == PurposeDecide
}

// Claims are the signed fields of a capability token. Times are Unix seconds.
type Claims struct {
	NegotiationID uuid.UUID        `json:"nid"`
	BookingID     uuid.UUID        `json:"bid"`
	ProposalID    *uuid.UUID       `json:"pid,omitempty"`
	ActorEmail    string           `json:"email"`
	ActorRole     negotiation.Role `json:"role"`
	Purpose       Purpose          `json:"purpose"`
	IssuedAt      int64            `json:"iat"`
	ExpiresAt     int64            `json:"exp"`
	Nonce         string           `json:"nonce"`
}

func (c Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}

func (c Claims) Expired(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

type Signer struct {
	key []byte
}

func NewSigner(secret string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "derive capability token key"), errs.ErrConfiguration)
	}
	return &Signer{key: key}, nil
}

func (s *Signer) Sign(claims Claims) (string, error) {
	if s == nil || len(s.key) == 0 {
		return "", ErrMissingSecret
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", errs.Wrap(err, "marshal capability token claims")
	}
	payload := base64.RawURLEncoding.EncodeToString(body)
	return payload + "." + hex.EncodeToString(s.mac(payload)), nil
}

// Parse checks the signature in constant time and decodes the claims.
// Expiry and purpose are left to the caller.
func (s *Signer) Parse(token string) (*Claims, error) {
	if s == nil || len(s.key) == 0 {
		return nil, ErrMissingSecret
	}
	payload, sigHex, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sigHex == "" || strings.Contains(sigHex, ".") {
		return nil, ErrMalformed
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, ErrMalformed
	}
	if !hmac.Equal(sig, s.mac(payload)) {
		return nil, ErrInvalidSignature
	}
	body, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrMalformed
	}
	var claims Claims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, ErrMalformed
	}
	if !claims.Purpose.IsValid() || claims.NegotiationID == uuid.Nil || claims.BookingID == uuid.Nil {
		return nil, ErrMalformed
	}
	return &claims, nil
}

func (s *Signer) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

// Hash is the lookup key of a token's LinkRecord.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
