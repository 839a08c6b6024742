//go:build unit || e2e

// Package memstore is an in-memory UnitOfWork for usecase tests.
//
// Within calls are serialized and roll back on error. The notification
// ledger is kept outside the rollback snapshot, like the real ledger which
// is written through WithDB.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/infra"
	"practice-hub/internal/infra/db"
	"practice-hub/internal/infra/repository"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

type txKey struct{}

type proposalRow struct {
	seq int
	p   *negotiation.Proposal
}

type state struct {
	bookings  map[uuid.UUID]*booking.Booking
	proposals []proposalRow
	links     map[string]shared.LinkRecord
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	st    state
	seq   int
	users map[uuid.UUID]*user.Contact
	sends map[string]*shared.SendRecord

	// Commits counts successful Within calls.
	Commits   int
	Rollbacks int
}

func New() *Store {
	return &Store{
		st: state{
			bookings: map[uuid.UUID]*booking.Booking{},
			links:    map[string]shared.LinkRecord{},
		},
		users: map[uuid.UUID]*user.Contact{},
		sends: map[string]*shared.SendRecord{},
	}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true), &memTx{s: s}); err != nil {
		s.mu.Lock()
		s.st = snap
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

func (s *Store) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	return fn(ctx, &memTx{s: s})
}

func (st state) clone() state {
	out := state{
		bookings:  make(map[uuid.UUID]*booking.Booking, len(st.bookings)),
		proposals: make([]proposalRow, len(st.proposals)),
		links:     make(map[string]shared.LinkRecord, len(st.links)),
	}
	for id, b := range st.bookings {
		out.bookings[id] = copyBooking(b)
	}
	for i, r := range st.proposals {
		out.proposals[i] = proposalRow{seq: r.seq, p: copyProposal(r.p)}
	}
	for k, v := range st.links {
		out.links[k] = v
	}
	return out
}

// Seeding and inspection helpers

func (s *Store) AddUser(c *user.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[c.ID()] = c
}

func (s *Store) PutBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.bookings[b.ID()] = copyBooking(b)
}

func (s *Store) Booking(id uuid.UUID) (*booking.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	if !ok {
		return nil, false
	}
	return copyBooking(b), true
}

// Proposals returns the proposals of a negotiation, oldest first.
func (s *Store) Proposals(negotiationID uuid.UUID) []*negotiation.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*negotiation.Proposal
	for _, r := range s.st.proposals {
		if r.p.NegotiationID() == negotiationID {
			out = append(out, copyProposal(r.p))
		}
	}
	return out
}

func (s *Store) Link(hash string) (shared.LinkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.links[hash]
	return l, ok
}

func (s *Store) LinkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.links)
}

func (s *Store) Sends() []shared.SendRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shared.SendRecord, 0, len(s.sends))
	for _, r := range s.sends {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdempotencyKey < out[j].IdempotencyKey })
	return out
}

func (s *Store) Send(key string) (shared.SendRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sends[key]
	if !ok {
		return shared.SendRecord{}, false
	}
	return *r, true
}

type memTx struct {
	s *Store
}

func (t *memTx) Bookings() shared.BookingRepository           { return bookingRepo{t.s} }
func (t *memTx) Proposals() shared.ProposalRepository         { return proposalRepo{t.s} }
func (t *memTx) Links() shared.LinkRepository                 { return linkRepo{t.s} }
func (t *memTx) Notifications() shared.NotificationRepository { return sendRepo{t.s} }
func (t *memTx) Users() shared.UserDirectory                  { return userDir{t.s} }
func (t *memTx) DB() db.DBTX                                  { return nil }

func notFound(what string) error {
	return infra.WrapRepoErr(what+" not found", nil, infra.KindNotFound)
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) Get(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return copyBooking(b), nil
}

func (r bookingRepo) GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	return r.Get(ctx, tx, id)
}

func (r bookingRepo) ListByParticipant(_ context.Context, _ db.DBTX, userID uuid.UUID, limit int) ([]*booking.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.s.st.bookings {
		if b.IsParticipant(userID) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start().Before(out[j].Start()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r bookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.bookings[b.ID()]; ok {
		return infra.WrapRepoErr("booking exists", nil, infra.KindDuplicateKey)
	}
	r.s.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r bookingRepo) Update(_ context.Context, _ db.DBTX, b *booking.Booking, guard shared.BookingGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.bookings[b.ID()]
	if !ok || cur.RevisionSequence() != guard.Revision || !sameGuest(cur.GuestID(), guard.GuestID) {
		return repository.ErrBookingChanged
	}
	r.s.st.bookings[b.ID()] = copyBooking(b)
	return nil
}

func (r bookingRepo) Delete(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.bookings[id]; !ok {
		return notFound("booking")
	}
	delete(r.s.st.bookings, id)
	return nil
}

func sameGuest(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type proposalRepo struct{ s *Store }

func (r proposalRepo) Create(_ context.Context, _ db.DBTX, p *negotiation.Proposal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.st.proposals {
		if row.p.NegotiationID() == p.NegotiationID() && row.p.IsPending() {
			return repository.ErrPendingExists
		}
	}
	r.s.seq++
	r.s.st.proposals = append(r.s.st.proposals, proposalRow{seq: r.s.seq, p: copyProposal(p)})
	return nil
}

func (r proposalRepo) Get(_ context.Context, _ db.DBTX, id uuid.UUID) (*negotiation.Proposal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.st.proposals {
		if row.p.ID() == id {
			return copyProposal(row.p), nil
		}
	}
	return nil, notFound("proposal")
}

func (r proposalRepo) latest(match func(*negotiation.Proposal) bool) *negotiation.Proposal {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *proposalRow
	for i := range r.s.st.proposals {
		row := &r.s.st.proposals[i]
		if match(row.p) && (found == nil || row.seq > found.seq) {
			found = row
		}
	}
	if found == nil {
		return nil
	}
	return copyProposal(found.p)
}

func (r proposalRepo) Latest(_ context.Context, _ db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error) {
	return r.latest(func(p *negotiation.Proposal) bool { return p.NegotiationID() == negotiationID }), nil
}

func (r proposalRepo) LatestPending(_ context.Context, _ db.DBTX, negotiationID uuid.UUID) (*negotiation.Proposal, error) {
	return r.latest(func(p *negotiation.Proposal) bool {
		return p.NegotiationID() == negotiationID && p.IsPending()
	}), nil
}

func (r proposalRepo) LatestForBooking(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*negotiation.Proposal, error) {
	return r.latest(func(p *negotiation.Proposal) bool { return p.BookingID() == bookingID }), nil
}

func (r proposalRepo) Decide(_ context.Context, _ db.DBTX, p *negotiation.Proposal) error {
	if p.DecidedBy() == nil || p.DecidedAt() == nil {
		return repository.ErrDecisionNotSet
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, row := range r.s.st.proposals {
		if row.p.ID() != p.ID() {
			continue
		}
		if !row.p.IsPending() {
			return negotiation.ErrNotPending
		}
		r.s.st.proposals[i].p = copyProposal(p)
		return nil
	}
	return negotiation.ErrNotPending
}

type linkRepo struct{ s *Store }

func (r linkRepo) Create(_ context.Context, _ db.DBTX, link shared.LinkRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.links[link.Hash]; !ok {
		r.s.st.links[link.Hash] = link
	}
	return nil
}

func (r linkRepo) Get(_ context.Context, _ db.DBTX, hash string) (*shared.LinkRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.st.links[hash]
	if !ok {
		return nil, notFound("link record")
	}
	return &l, nil
}

func (r linkRepo) Consume(_ context.Context, _ db.DBTX, hash string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.st.links[hash]
	if !ok || l.UsedAt != nil || !now.Before(l.ExpiresAt) {
		return false, nil
	}
	l.UsedAt = &now
	r.s.st.links[hash] = l
	return true, nil
}

type sendRepo struct{ s *Store }

func (r sendRepo) Claim(_ context.Context, _ db.DBTX, p shared.ClaimParams) (*shared.SendRecord, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.sends[p.IdempotencyKey]
	if !ok {
		rec = &shared.SendRecord{
			ID:             uuid.New(),
			IdempotencyKey: p.IdempotencyKey,
			Recipient:      p.Recipient,
			Kind:           p.Kind,
			Status:         shared.SendStatusClaimed,
			CreatedAt:      p.Now,
			UpdatedAt:      p.Now,
		}
		r.s.sends[p.IdempotencyKey] = rec
		cp := *rec
		return &cp, true, nil
	}
	reclaimable := rec.Status == shared.SendStatusFailed ||
		(rec.Status == shared.SendStatusClaimed && rec.UpdatedAt.Before(p.LeaseCutoff))
	if reclaimable {
		rec.Status = shared.SendStatusClaimed
		rec.UpdatedAt = p.Now
	}
	cp := *rec
	return &cp, reclaimable, nil
}

func (r sendRepo) find(id uuid.UUID) *shared.SendRecord {
	for _, rec := range r.s.sends {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (r sendRepo) RecordAttempt(_ context.Context, _ db.DBTX, id uuid.UUID, lastError *string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := r.find(id)
	if rec == nil {
		return notFound("notification")
	}
	rec.AttemptCount++
	if lastError != nil {
		msg := *lastError
		rec.LastError = &msg
	}
	rec.UpdatedAt = now
	return nil
}

func (r sendRepo) MarkSent(_ context.Context, _ db.DBTX, id uuid.UUID, providerMessageID string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := r.find(id)
	if rec == nil || rec.Status != shared.SendStatusClaimed {
		return notFound("claimed notification")
	}
	rec.Status = shared.SendStatusSent
	rec.ProviderMessageID = &providerMessageID
	rec.UpdatedAt = now
	return nil
}

func (r sendRepo) MarkFailed(_ context.Context, _ db.DBTX, id uuid.UUID, lastError string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := r.find(id)
	if rec == nil || rec.Status != shared.SendStatusClaimed {
		return notFound("claimed notification")
	}
	rec.Status = shared.SendStatusFailed
	rec.LastError = &lastError
	rec.UpdatedAt = now
	return nil
}

type userDir struct{ s *Store }

func (r userDir) Contact(_ context.Context, _ db.DBTX, id uuid.UUID) (*user.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return c, nil
}

func copyBooking(b *booking.Booking) *booking.Booking {
	var guest *uuid.UUID
	if b.GuestID() != nil {
		g := *b.GuestID()
		guest = &g
	}
	return booking.ReconstructBooking(
		b.ID(), b.HostID(), guest,
		b.Start(), b.DurationMinutes(),
		b.CalendarUID(), b.RevisionSequence(), b.Stage(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func copyProposal(p *negotiation.Proposal) *negotiation.Proposal {
	var decidedBy *negotiation.Role
	if p.DecidedBy() != nil {
		r := *p.DecidedBy()
		decidedBy = &r
	}
	var decidedAt *time.Time
	if p.DecidedAt() != nil {
		t := *p.DecidedAt()
		decidedAt = &t
	}
	var note *string
	if p.Note() != nil {
		n := strings.Clone(*p.Note())
		note = &n
	}
	return negotiation.ReconstructProposal(
		p.ID(), p.BookingID(), p.NegotiationID(),
		p.ProposedBy(), p.ProposerEmail(),
		p.Slot().Start(), p.Slot().End(), note,
		p.Status(), decidedBy, p.BaseRevision(),
		p.CreatedAt(), decidedAt,
	)
}
