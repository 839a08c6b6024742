//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/ics"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/shared"
	"practice-hub/tests/common/mailtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotification(key string) commands.Notification {
	return commands.Notification{
		IdempotencyKey: key,
		Kind:           commands.KindInviteRequest,
		Message: shared.MailMessage{
			To:      "guest@example.com",
			Subject: "Session scheduled",
			Text:    "hello",
		},
	}
}

func TestIdempotencyKey(t *testing.T) {
	got := commands.IdempotencyKey("booking-42", 3, " Guest@Example.com ", "REQUEST")
	assert.Equal(t, "booking-42:3:guest@example.com:REQUEST", got)
}

func TestNotificationDispatcher_Deliver(t *testing.T) {
	t.Run("sends once per key", func(t *testing.T) {
		h := newHarness(t)
		n := testNotification("k:0:guest@example.com:REQUEST")

		first, err := h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliverySent, first.Status)
		assert.Equal(t, "msg_1", first.ProviderMessageID)

		second, err := h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliveryAlreadySent, second.Status)
		assert.Equal(t, first.RecordID, second.RecordID)
		assert.Equal(t, 1, h.mailer.Calls())

		rec, ok := h.store.Send(n.IdempotencyKey)
		require.True(t, ok)
		assert.Equal(t, shared.SendStatusSent, rec.Status)
		assert.Equal(t, 1, rec.AttemptCount)
		require.NotNil(t, rec.ProviderMessageID)
		assert.Equal(t, "msg_1", *rec.ProviderMessageID)
	})

	t.Run("retries transient failures with doubling backoff", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) { c.Mail.BackoffBase = 500 * time.Millisecond })
		h.mailer.FailNext(mailtest.ErrTransient, mailtest.ErrTransient)
		n := testNotification("retry")

		res, err := h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliverySent, res.Status)
		assert.Equal(t, 3, h.mailer.Calls())
		assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, h.recordedWaits())

		rec, _ := h.store.Send("retry")
		assert.Equal(t, 3, rec.AttemptCount)
		assert.Equal(t, shared.SendStatusSent, rec.Status)
	})

	t.Run("exhausted retries mark the record failed", func(t *testing.T) {
		h := newHarness(t)
		h.mailer.FailNext(mailtest.ErrTransient, mailtest.ErrTransient, mailtest.ErrTransient)
		n := testNotification("exhaust")

		res, err := h.dispatcher.Deliver(context.Background(), n)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrProviderError))
		assert.Equal(t, commands.DeliveryFailed, res.Status)
		assert.Equal(t, 3, h.mailer.Calls())
		assert.Len(t, h.recordedWaits(), 2)

		rec, _ := h.store.Send("exhaust")
		assert.Equal(t, shared.SendStatusFailed, rec.Status)
		assert.Equal(t, 3, rec.AttemptCount)
		require.NotNil(t, rec.LastError)

		// a failed key can be claimed again
		res, err = h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliverySent, res.Status)
		assert.Len(t, h.mailer.Sent(), 1)
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		h := newHarness(t)
		h.mailer.FailNext(mailtest.ErrPermanent)

		_, err := h.dispatcher.Deliver(context.Background(), testNotification("permanent"))
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrProviderError))
		assert.Equal(t, 1, h.mailer.Calls())
		assert.Empty(t, h.recordedWaits())
	})

	t.Run("a live claim blocks other senders until its lease runs out", func(t *testing.T) {
		h := newHarness(t)
		n := testNotification("inflight")
		claim, err := h.dispatcher.Claim(context.Background(), n.IdempotencyKey, n.Message.To, n.Kind)
		require.NoError(t, err)
		require.True(t, claim.Claimed)

		res, err := h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliveryInFlight, res.Status)
		assert.Zero(t, h.mailer.Calls())

		h.clock.Add(h.cfg.Mail.ClaimLease + time.Second)
		res, err = h.dispatcher.Deliver(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, commands.DeliverySent, res.Status)
		assert.Equal(t, claim.RecordID, res.RecordID)
	})

	t.Run("dry run skips the ledger and the provider", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) { c.Mail.Enabled = false })

		res, err := h.dispatcher.Deliver(context.Background(), testNotification("dry"))
		require.NoError(t, err)
		assert.Equal(t, commands.DeliverySkipped, res.Status)
		assert.Zero(t, h.mailer.Calls())
		assert.Empty(t, h.store.Sends())
	})

	t.Run("redirect keeps the original recipient in the ledger", func(t *testing.T) {
		h := newHarness(t, func(c *config.Config) { c.Mail.RedirectAllTo = "qa@example.com" })

		_, err := h.dispatcher.Deliver(context.Background(), testNotification("redirect"))
		require.NoError(t, err)

		sent := h.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "qa@example.com", sent[0].To)
		assert.Equal(t, "[to guest@example.com] Session scheduled", sent[0].Subject)

		rec, _ := h.store.Send("redirect")
		assert.Equal(t, "guest@example.com", rec.Recipient)
	})
}

func TestNotificationDispatcher_DeliverAll(t *testing.T) {
	h := newHarness(t)
	h.mailer.FailFor("host@example.com", mailtest.ErrPermanent)

	ok := testNotification("all:guest")
	bad := testNotification("all:host")
	bad.Message.To = "host@example.com"

	result := h.dispatcher.DeliverAll(context.Background(), []commands.Notification{ok, bad})
	failed, isFailed := result.(commands.NotifyFailed)
	require.True(t, isFailed)
	assert.Len(t, failed.Deliveries, 2)
	require.Len(t, failed.Failures, 1)
	assert.Equal(t, "host@example.com", failed.Failures[0].Recipient)

	h.mailer.FailFor("host@example.com", nil)
	result = h.dispatcher.DeliverAll(context.Background(), []commands.Notification{ok, bad})
	assert.IsType(t, commands.NotifyOK{}, result)
	assert.Len(t, h.mailer.Sent(), 2, "guest mail was not sent twice")
}

func TestCalendarNotifier_RepeatedTrigger(t *testing.T) {
	h := newHarness(t)
	people := commands.Participants{Host: h.host, Guest: h.guest}
	correlation := "booking-" + h.booking.ID().String()

	first := h.calendar.Notify(context.Background(), h.booking, people, ics.MethodRequest, correlation)
	require.IsType(t, commands.NotifyOK{}, first)
	require.Len(t, h.mailer.Sent(), 2)
	links := h.store.LinkCount()
	assert.Equal(t, 2, links, "one propose link per recipient")

	second := h.calendar.Notify(context.Background(), h.booking, people, ics.MethodRequest, correlation)
	ok, isOK := second.(commands.NotifyOK)
	require.True(t, isOK)
	for _, d := range ok.Deliveries {
		assert.Equal(t, commands.DeliveryAlreadySent, d.Status)
	}
	assert.Len(t, h.mailer.Sent(), 2)
	assert.Equal(t, links, h.store.LinkCount(), "no link is issued for a mail that is not sent")
}

func TestNotificationDispatcher_PrepareFailure(t *testing.T) {
	h := newHarness(t)
	n := testNotification("prepare-fails")
	n.Prepare = func(context.Context) (shared.MailMessage, error) {
		return shared.MailMessage{}, errs.New("render failed")
	}

	res, err := h.dispatcher.Deliver(context.Background(), n)
	require.Error(t, err)
	assert.Equal(t, commands.DeliveryFailed, res.Status)
	assert.Empty(t, h.mailer.Sent())

	rec, ok := h.store.Send("prepare-fails")
	require.True(t, ok)
	assert.Equal(t, shared.SendStatusFailed, rec.Status)
}
