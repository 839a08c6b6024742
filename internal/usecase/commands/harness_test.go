//go:build unit

package commands_test

import (
	"context"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/shared"
	"practice-hub/tests/common/builder"
	"practice-hub/tests/common/mailtest"
	"practice-hub/tests/common/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	decisionLinkRe = regexp.MustCompile(`/decision\?t=(\S+)`)
	proposeLinkRe  = regexp.MustCompile(`/reschedule\?r=(\S+)`)
)

type harness struct {
	store  *memstore.Store
	mailer *mailtest.Mailer
	clock  *clock.MockClock
	cfg    config.Config

	tokens     *commands.TokenService
	dispatcher *commands.NotificationDispatcher
	composer   *commands.InviteComposer
	calendar   *commands.CalendarNotifier
	reschedule commands.RescheduleCommands
	bookings   commands.BookingCommands

	host    *user.Contact
	guest   *user.Contact
	booking *booking.Booking

	mu    sync.Mutex
	waits []time.Duration
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	bb := builder.NewBookingBuilder()
	cfg := config.NewTestConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	h := &harness{
		store:  memstore.New(),
		mailer: mailtest.New(),
		clock:  clock.NewMockClock(bb.Now),
		cfg:    cfg,
	}

	host, err := builder.NewContactBuilder().WithEmail("host@example.com").WithDisplayName("Hana Host").BuildDomain()
	require.NoError(t, err)
	guest, err := builder.NewContactBuilder().WithEmail("guest@example.com").WithDisplayName("Gil Guest").BuildDomain()
	require.NoError(t, err)
	h.host, h.guest = host, guest
	h.store.AddUser(host)
	h.store.AddUser(guest)

	h.booking = bb.WithHost(host.ID()).WithGuest(guest.ID()).BuildBooked()
	h.store.PutBooking(h.booking)

	signer, err := captoken.NewSigner(cfg.Links.SigningSecret)
	require.NoError(t, err)
	h.tokens = commands.NewTokenService(signer, h.clock)
	h.dispatcher = commands.NewNotificationDispatcher(h.store, h.mailer, h.clock, cfg.Mail)
	h.dispatcher.SetSleep(func(_ context.Context, d time.Duration) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.waits = append(h.waits, d)
		return nil
	})
	h.composer = commands.NewInviteComposer(cfg, h.clock)
	h.calendar = commands.NewCalendarNotifier(h.store, h.tokens, h.composer, h.dispatcher, cfg)

	bookingStore := commands.NewBookingStore(h.clock)
	h.reschedule = commands.NewRescheduleUseCase(
		h.store, h.clock, h.tokens, bookingStore, commands.NewProposalStore(h.clock),
		h.composer, h.dispatcher, h.calendar, cfg,
	)
	h.bookings = commands.NewBookingUseCase(h.store, h.clock, bookingStore, h.calendar, cfg)
	return h
}

func (h *harness) recordedWaits() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]time.Duration, len(h.waits))
	copy(out, h.waits)
	return out
}

// issueProposeLink stores a propose link for holder, as an invite email would carry.
func (h *harness) issueProposeLink(t *testing.T, holder *user.Contact) (string, uuid.UUID) {
	t.Helper()
	negotiationID := uuid.New()
	var token string
	err := h.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		issued, err := h.tokens.Issue(ctx, tx, commands.IssueParams{
			NegotiationID: negotiationID,
			BookingID:     h.booking.ID(),
			ActorEmail:    holder.Email().Value(),
			ActorRole:     negotiation.RoleInitiator,
			Purpose:       captoken.PurposePropose,
			TTL:           h.cfg.Links.ProposeTTL,
		})
		if err != nil {
			return err
		}
		token = issued.Token
		return nil
	})
	require.NoError(t, err)
	return token, negotiationID
}

// decisionToken returns the token of the newest decision link mailed to recipient.
func (h *harness) decisionToken(t *testing.T, recipient string) string {
	t.Helper()
	msgs := h.mailer.SentTo(recipient)
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := decisionLinkRe.FindStringSubmatch(msgs[i].Text); m != nil {
			token, err := url.QueryUnescape(m[1])
			require.NoError(t, err)
			return token
		}
	}
	t.Fatalf("no decision link mailed to %s", recipient)
	return ""
}

func (h *harness) slot(offset time.Duration, minutes int) commands.SlotInput {
	start := h.clock.Now().Add(offset).Truncate(time.Minute)
	return commands.SlotInput{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

func (h *harness) currentBooking(t *testing.T) *booking.Booking {
	t.Helper()
	b, ok := h.store.Booking(h.booking.ID())
	require.True(t, ok, "booking should exist")
	return b
}

func attachmentOf(t *testing.T, msg shared.MailMessage) string {
	t.Helper()
	require.Len(t, msg.Attachments, 1)
	return string(msg.Attachments[0].Content)
}
