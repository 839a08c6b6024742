//go:build unit

package commands_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/shared"
	"practice-hub/tests/common/builder"
	"practice-hub/tests/common/mailtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCommands_Create(t *testing.T) {
	h := newHarness(t)
	start := h.clock.Now().Add(24 * time.Hour)

	res, err := h.bookings.Create(context.Background(), h.host.ID(), commands.CreateBookingInput{Start: start, DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, booking.StageOpen, res.Booking.Stage())
	assert.True(t, strings.HasSuffix(res.Booking.CalendarUID(), "@"+h.cfg.Calendar.UIDDomain))
	assert.IsType(t, commands.NotifyOK{}, res.Notification)

	stored, ok := h.store.Booking(res.Booking.ID())
	require.True(t, ok)
	assert.True(t, start.Equal(stored.End().Add(-30*time.Minute)))

	_, err = h.bookings.Create(context.Background(), h.host.ID(), commands.CreateBookingInput{Start: start, DurationMinutes: 1})
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))
}

func TestBookingCommands_Update(t *testing.T) {
	openBooking := func(t *testing.T, h *harness) *booking.Booking {
		t.Helper()
		res, err := h.bookings.Create(context.Background(), h.host.ID(), commands.CreateBookingInput{
			Start:           h.clock.Now().Add(24 * time.Hour),
			DurationMinutes: 45,
		})
		require.NoError(t, err)
		return res.Booking
	}

	t.Run("guest booking sends invites at revision zero", func(t *testing.T) {
		h := newHarness(t)
		b := openBooking(t, h)
		guestID := h.guest.ID()

		res, err := h.bookings.Update(context.Background(), b.ID(), guestID, booking.Patch{GuestID: &guestID})
		require.NoError(t, err)
		assert.True(t, res.Change.GuestAssigned)
		assert.False(t, res.Change.Rescheduled)
		assert.Equal(t, 0, res.Booking.RevisionSequence())
		assert.IsType(t, commands.NotifyOK{}, res.Notification)

		require.Len(t, h.mailer.Sent(), 2)
		body := attachmentOf(t, h.mailer.SentTo("guest@example.com")[0])
		assert.Contains(t, body, "SEQUENCE:0")

		_, ok := h.store.Send(commands.IdempotencyKey("booking-"+b.ID().String(), 0, "guest@example.com", "REQUEST"))
		assert.True(t, ok)
	})

	t.Run("host reschedule of a booked session bumps the revision", func(t *testing.T) {
		h := newHarness(t)
		start := h.booking.Start().Add(time.Hour)

		res, err := h.bookings.Update(context.Background(), h.booking.ID(), h.host.ID(), booking.Patch{Start: &start})
		require.NoError(t, err)
		assert.True(t, res.Change.Rescheduled)
		assert.Equal(t, 1, res.Booking.RevisionSequence())

		for _, msg := range h.mailer.Sent() {
			assert.Contains(t, attachmentOf(t, msg), "SEQUENCE:1")
			assert.Regexp(t, proposeLinkRe, msg.Text)
		}
		assert.Len(t, h.mailer.Sent(), 2)
	})

	t.Run("guard failures leave the booking untouched", func(t *testing.T) {
		h := newHarness(t)
		start := h.booking.Start().Add(time.Hour)
		guestID := h.guest.ID()
		hostID := h.host.ID()
		latecomer, err := builder.NewContactBuilder().WithEmail("late@example.com").WithDisplayName("Lou Late").BuildDomain()
		require.NoError(t, err)
		h.store.AddUser(latecomer)
		latecomerID := latecomer.ID()

		cases := []struct {
			name  string
			actor uuid.UUID
			patch booking.Patch
			want  error
		}{
			{name: "guest cannot move the session", actor: guestID, patch: booking.Patch{Start: &start}, want: errs.ErrForbidden},
			{name: "host cannot book own session", actor: hostID, patch: booking.Patch{GuestID: &hostID}, want: errs.ErrForbidden},
			{name: "another guest cannot take a booked slot", actor: latecomerID, patch: booking.Patch{GuestID: &latecomerID}, want: errs.ErrBookingConflict},
			{name: "booked guest books again", actor: guestID, patch: booking.Patch{GuestID: &guestID}, want: errs.ErrBookingConflict},
			{name: "empty patch", actor: hostID, patch: booking.Patch{}, want: errs.ErrInvalidInput},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := h.bookings.Update(context.Background(), h.booking.ID(), tc.actor, tc.patch)
				require.Error(t, err)
				assert.True(t, errs.Is(err, tc.want), "got %v", err)

				b := h.currentBooking(t)
				assert.Equal(t, 0, b.RevisionSequence())
				assert.True(t, h.booking.Start().Equal(b.Start()))
				require.NotNil(t, b.GuestID())
				assert.Equal(t, guestID, *b.GuestID())
			})
		}
		assert.Empty(t, h.mailer.Sent())
	})

	t.Run("mail failure does not undo the update", func(t *testing.T) {
		h := newHarness(t)
		h.mailer.FailFor("host@example.com", mailtest.ErrPermanent)
		minutes := 60

		res, err := h.bookings.Update(context.Background(), h.booking.ID(), h.host.ID(), booking.Patch{DurationMinutes: &minutes})
		require.NoError(t, err)
		assert.IsType(t, commands.NotifyFailed{}, res.Notification)
		assert.Equal(t, 60, h.currentBooking(t).DurationMinutes())
	})
}

func TestBookingCommands_Cancel(t *testing.T) {
	t.Run("only the host cancels", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.bookings.Cancel(context.Background(), h.booking.ID(), h.guest.ID())
		assert.True(t, errs.Is(err, commands.ErrOnlyHostCanCancel))
		_, ok := h.store.Booking(h.booking.ID())
		assert.True(t, ok)
	})

	t.Run("cancel sends CANCEL to both attendees", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.bookings.Cancel(context.Background(), h.booking.ID(), h.host.ID())
		require.NoError(t, err)
		assert.Equal(t, h.booking.ID(), res.Booking.ID())

		_, ok := h.store.Booking(h.booking.ID())
		assert.False(t, ok)
		require.Len(t, h.mailer.Sent(), 2)
		for _, msg := range h.mailer.Sent() {
			assert.Contains(t, attachmentOf(t, msg), "METHOD:CANCEL")
			assert.True(t, strings.HasPrefix(msg.Subject, "Session cancelled"))
		}

		_, err = h.bookings.Cancel(context.Background(), h.booking.ID(), h.host.ID())
		assert.True(t, errs.Is(err, errs.ErrNotFound))
	})
}

func TestBookingStore_ExpectedRevision(t *testing.T) {
	h := newHarness(t)
	store := commands.NewBookingStore(h.clock)
	stale := 3
	start := h.booking.Start().Add(time.Hour)

	err := h.store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, _, err := store.ApplyGuardedUpdate(ctx, tx, commands.GuardedUpdate{
			BookingID:        h.booking.ID(),
			ActorID:          h.host.ID(),
			Patch:            booking.Patch{Start: &start},
			ExpectedRevision: &stale,
		})
		return err
	})
	assert.True(t, errs.Is(err, errs.ErrBookingConflict))
	assert.True(t, h.booking.Start().Equal(h.currentBooking(t).Start()))
}
