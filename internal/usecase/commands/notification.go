package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	defaultClaimLease  = 5 * time.Minute
)

// IdempotencyKey identifies one logical email: correlation:revision:recipient:method.
func IdempotencyKey(correlation string, revision int, recipient, method string) string {
	return fmt.Sprintf("%s:%d:%s:%s", correlation, revision, strings.ToLower(strings.TrimSpace(recipient)), method)
}

type Notification struct {
	IdempotencyKey string
	Kind           string
	Message        shared.MailMessage
	// Prepare, when set, renders the final message after the claim succeeds.
	// Side effects such as issuing links then happen at most once per key.
	Prepare func(ctx context.Context) (shared.MailMessage, error)
}

type DeliveryStatus string

const (
	DeliverySent        DeliveryStatus = "sent"
	DeliveryAlreadySent DeliveryStatus = "already_sent"
	DeliveryInFlight    DeliveryStatus = "in_flight"
	DeliverySkipped     DeliveryStatus = "skipped"
	DeliveryFailed      DeliveryStatus = "failed"
)

type DeliveryResult struct {
	Status            DeliveryStatus
	Recipient         string
	RecordID          uuid.UUID
	ProviderMessageID string
}

// ClaimResult tells the caller whether it owns the send of a key.
type ClaimResult struct {
	RecordID    uuid.UUID
	Claimed     bool
	AlreadySent bool
}

// NotifyResult is the outcome of the notifications that follow a committed change.
// Exactly one of NotifyOK or NotifyFailed.
type NotifyResult interface {
	isNotifyResult()
}

type NotifyOK struct {
	Deliveries []DeliveryResult
}

type NotifyFailed struct {
	Deliveries []DeliveryResult
	Failures   []FailedDelivery
}

type FailedDelivery struct {
	Recipient string
	Err       error
}

func (NotifyOK) isNotifyResult()     {}
func (NotifyFailed) isNotifyResult() {}

// NotificationDispatcher delivers each idempotency key at most once. The
// send ledger is written outside any business transaction so that a claim
// or a sent mark survives a rollback of the caller.
type NotificationDispatcher struct {
	uow    shared.UnitOfWork
	mailer shared.Mailer
	clock  clock.Clock
	cfg    config.MailConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewNotificationDispatcher(uow shared.UnitOfWork, mailer shared.Mailer, clk clock.Clock, cfg config.MailConfig) *NotificationDispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = defaultClaimLease
	}
	return &NotificationDispatcher{
		uow:    uow,
		mailer: mailer,
		clock:  clk,
		cfg:    cfg,
		sleep:  sleepContext,
	}
}

// SetSleep replaces the wait between attempts.
func (d *NotificationDispatcher) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	d.sleep = fn
}

func (d *NotificationDispatcher) Claim(ctx context.Context, key, recipient, kind string) (ClaimResult, error) {
	var result ClaimResult
	err := d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := d.clock.Now()
		rec, claimed, err := tx.Notifications().Claim(ctx, tx.DB(), shared.ClaimParams{
			IdempotencyKey: key,
			Recipient:      recipient,
			Kind:           kind,
			Now:            now,
			LeaseCutoff:    now.Add(-d.cfg.ClaimLease),
		})
		if err != nil {
			return err
		}
		result = ClaimResult{
			RecordID:    rec.ID,
			Claimed:     claimed,
			AlreadySent: rec.Status == shared.SendStatusSent,
		}
		return nil
	})
	return result, err
}

// Send calls the mailer up to MaxAttempts times, waiting BackoffBase and then
// doubling between attempts. Only transient failures are retried. When every
// attempt fails the record is marked failed so a later call can reclaim it.
func (d *NotificationDispatcher) Send(ctx context.Context, recordID uuid.UUID, msg shared.MailMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt < d.cfg.MaxAttempts; attempt++ {
		providerID, err := d.mailer.Send(ctx, msg)
		d.recordAttempt(ctx, recordID, err)
		if err == nil {
			return providerID, nil
		}
		lastErr = err

		transient := errs.Is(err, shared.ErrMailTransient)
		slog.Warn("mail send attempt failed",
			"record_id", recordID,
			"attempt", attempt+1,
			"max_attempts", d.cfg.MaxAttempts,
			"transient", transient,
			"error", err.Error())
		if !transient || attempt+1 == d.cfg.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, d.backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	if err := d.MarkFailed(ctx, recordID, lastErr); err != nil {
		slog.Error("failed to mark notification failed", "record_id", recordID, "error", err.Error())
	}
	return "", errs.Mark(errs.Wrap(lastErr, "mail delivery failed"), errs.ErrProviderError)
}

func (d *NotificationDispatcher) MarkSent(ctx context.Context, recordID uuid.UUID, providerMessageID string) error {
	return d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().MarkSent(ctx, tx.DB(), recordID, providerMessageID, d.clock.Now())
	})
}

func (d *NotificationDispatcher) MarkFailed(ctx context.Context, recordID uuid.UUID, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().MarkFailed(ctx, tx.DB(), recordID, msg, d.clock.Now())
	})
}

// Deliver runs claim, send and mark for one notification. A key that is
// already sent, or claimed by a live sender, is not sent again.
func (d *NotificationDispatcher) Deliver(ctx context.Context, n Notification) (DeliveryResult, error) {
	result := DeliveryResult{Recipient: n.Message.To}
	if !d.cfg.Enabled {
		slog.Info("notifications disabled, skipping send",
			"idempotency_key", n.IdempotencyKey,
			"kind", n.Kind,
			"to", n.Message.To,
			"subject", n.Message.Subject)
		result.Status = DeliverySkipped
		return result, nil
	}

	claim, err := d.Claim(ctx, n.IdempotencyKey, n.Message.To, n.Kind)
	if err != nil {
		result.Status = DeliveryFailed
		return result, err
	}
	result.RecordID = claim.RecordID
	if !claim.Claimed {
		result.Status = DeliveryInFlight
		if claim.AlreadySent {
			result.Status = DeliveryAlreadySent
		}
		slog.Debug("notification not claimed", "idempotency_key", n.IdempotencyKey, "status", result.Status)
		return result, nil
	}

	msg := n.Message
	if n.Prepare != nil {
		if msg, err = n.Prepare(ctx); err != nil {
			if markErr := d.MarkFailed(ctx, claim.RecordID, err); markErr != nil {
				slog.Warn("failed to mark notification failed", "record_id", claim.RecordID, "error", markErr.Error())
			}
			result.Status = DeliveryFailed
			return result, errs.Wrap(err, "prepare notification")
		}
	}
	if d.cfg.RedirectAllTo != "" {
		msg.Subject = fmt.Sprintf("[to %s] %s", msg.To, msg.Subject)
		msg.To = d.cfg.RedirectAllTo
	}

	providerID, err := d.Send(ctx, claim.RecordID, msg)
	if err != nil {
		result.Status = DeliveryFailed
		return result, err
	}
	if err := d.MarkSent(ctx, claim.RecordID, providerID); err != nil {
		// The mail went out; a stale claim only blocks resends until the lease runs out.
		slog.Error("failed to mark notification sent",
			"record_id", claim.RecordID,
			"provider_message_id", providerID,
			"error", err.Error())
	}
	result.Status = DeliverySent
	result.ProviderMessageID = providerID
	slog.Info("notification sent",
		"idempotency_key", n.IdempotencyKey,
		"kind", n.Kind,
		"record_id", claim.RecordID,
		"provider_message_id", providerID)
	return result, nil
}

// DeliverAll delivers every notification and folds the outcomes into a NotifyResult.
func (d *NotificationDispatcher) DeliverAll(ctx context.Context, ns []Notification) NotifyResult {
	var deliveries []DeliveryResult
	var failures []FailedDelivery
	for _, n := range ns {
		res, err := d.Deliver(ctx, n)
		deliveries = append(deliveries, res)
		if err != nil {
			failures = append(failures, FailedDelivery{Recipient: n.Message.To, Err: err})
		}
	}
	if len(failures) > 0 {
		return NotifyFailed{Deliveries: deliveries, Failures: failures}
	}
	return NotifyOK{Deliveries: deliveries}
}

func (d *NotificationDispatcher) recordAttempt(ctx context.Context, recordID uuid.UUID, sendErr error) {
	var lastError *string
	if sendErr != nil {
		msg := sendErr.Error()
		lastError = &msg
	}
	err := d.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().RecordAttempt(ctx, tx.DB(), recordID, lastError, d.clock.Now())
	})
	if err != nil {
		slog.Warn("failed to record notification attempt", "record_id", recordID, "error", err.Error())
	}
}

func (d *NotificationDispatcher) backoff(attempt int) time.Duration {
	return d.cfg.BackoffBase * time.Duration(1<<attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
