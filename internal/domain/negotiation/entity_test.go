//go:build unit

package negotiation_test

import (
	"strings"
	"testing"
	"time"

	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/pkg/errs"
	"practice-hub/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.ProposalBuilder)
	errIs  error
}

func TestNewProposal(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		b := builder.NewProposalBuilder().WithNote("  works for me  ")
		actual, err := b.BuildDomain()
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, actual.ID())
		assert.Equal(t, negotiation.StatusPending, actual.Status())
		assert.True(t, actual.IsPending())
		assert.Nil(t, actual.DecidedBy())
		assert.Nil(t, actual.DecidedAt())
		require.NotNil(t, actual.Note())
		assert.Equal(t, "works for me", *actual.Note())
		assert.Equal(t, 45*time.Minute, actual.Slot().Duration())
	})

	t.Run("keeps a caller supplied id", func(t *testing.T) {
		id := uuid.New()
		b := builder.NewProposalBuilder()
		p, err := negotiation.NewProposal(negotiation.NewProposalParams{
			ID:            id,
			BookingID:     b.BookingID,
			NegotiationID: b.NegotiationID,
			ProposedBy:    negotiation.RoleCounterparty,
			ProposerEmail: "guest@example.com",
			Start:         b.Start,
			End:           b.End,
		}, b.Now)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID())
	})

	t.Run("validation", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "end before start",
				mutate: func(b *builder.ProposalBuilder) { b.WithSlot(b.Start, b.Start.Add(-time.Minute)) },
				errIs:  negotiation.ErrInvalidSlot,
			},
			{
				name:   "zero length slot",
				mutate: func(b *builder.ProposalBuilder) { b.WithSlot(b.Start, b.Start) },
				errIs:  negotiation.ErrInvalidSlot,
			},
			{
				name:   "slot in the past",
				mutate: func(b *builder.ProposalBuilder) { b.WithSlot(b.Now.Add(-time.Hour), b.Now) },
				errIs:  negotiation.ErrSlotInPast,
			},
			{
				name:   "invalid role",
				mutate: func(b *builder.ProposalBuilder) { b.WithProposer("host", "host@example.com") },
				errIs:  negotiation.ErrInvalidRole,
			},
			{
				name:   "missing proposer email",
				mutate: func(b *builder.ProposalBuilder) { b.WithProposer(negotiation.RoleInitiator, "  ") },
				errIs:  negotiation.ErrMissingProposer,
			},
			{
				name:   "note at maximum length",
				mutate: func(b *builder.ProposalBuilder) { b.WithNote(strings.Repeat("a", negotiation.MaxNoteLength)) },
			},
			{
				name:   "note too long",
				mutate: func(b *builder.ProposalBuilder) { b.WithNote(strings.Repeat("a", negotiation.MaxNoteLength+1)) },
				errIs:  negotiation.ErrNoteTooLong,
			},
		})
	})

	t.Run("blank note is dropped", func(t *testing.T) {
		p, err := builder.NewProposalBuilder().WithNote("   ").BuildDomain()
		require.NoError(t, err)
		assert.Nil(t, p.Note())
	})
}

func TestDecide(t *testing.T) {
	t.Run("pending proposal is decided once", func(t *testing.T) {
		b := builder.NewProposalBuilder()
		p := b.MustBuild()
		at := b.Now.Add(time.Hour)

		require.NoError(t, p.Decide(negotiation.StatusApproved, negotiation.RoleCounterparty, at))

		assert.Equal(t, negotiation.StatusApproved, p.Status())
		require.NotNil(t, p.DecidedBy())
		assert.Equal(t, negotiation.RoleCounterparty, *p.DecidedBy())
		require.NotNil(t, p.DecidedAt())
		assert.Equal(t, at, *p.DecidedAt())

		err := p.Decide(negotiation.StatusDeclined, negotiation.RoleInitiator, at)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrAlreadyDecided))
		assert.Equal(t, negotiation.StatusApproved, p.Status())
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		p := builder.NewProposalBuilder().MustBuild()
		err := p.Decide(negotiation.StatusPending, negotiation.RoleInitiator, time.Now())
		assert.True(t, errs.Is(err, negotiation.ErrDecideAsPending))
	})
}

func TestStateOf(t *testing.T) {
	pending := builder.NewProposalBuilder().MustBuild()
	declined := builder.NewProposalBuilder().MustBuild()
	require.NoError(t, declined.Decide(negotiation.StatusDeclined, negotiation.RoleCounterparty, time.Now()))

	cases := []struct {
		name   string
		latest *negotiation.Proposal
		want   negotiation.State
	}{
		{name: "no proposal", latest: nil, want: negotiation.NoProposal{}},
		{name: "pending", latest: pending, want: negotiation.Pending{ProposalID: pending.ID()}},
		{
			name:   "resolved",
			latest: declined,
			want:   negotiation.Resolved{ProposalID: declined.ID(), Outcome: negotiation.StatusDeclined},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, negotiation.StateOf(tc.latest)); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCanDecide(t *testing.T) {
	id := uuid.New()

	assert.NoError(t, negotiation.CanDecide(negotiation.Pending{ProposalID: id}, id))

	err := negotiation.CanDecide(negotiation.Pending{ProposalID: uuid.New()}, id)
	assert.True(t, errs.Is(err, errs.ErrAlreadyDecided), "superseded proposal")

	err = negotiation.CanDecide(negotiation.Resolved{ProposalID: id, Outcome: negotiation.StatusApproved}, id)
	assert.True(t, errs.Is(err, errs.ErrAlreadyDecided))

	err = negotiation.CanDecide(negotiation.NoProposal{}, id)
	assert.True(t, errs.Is(err, errs.ErrNotFound))

	got, ok := negotiation.PendingID(negotiation.Pending{ProposalID: id})
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = negotiation.PendingID(negotiation.NoProposal{})
	assert.False(t, ok)
}

func TestParseEnums(t *testing.T) {
	role, err := negotiation.NewRole("counterparty")
	require.NoError(t, err)
	assert.Equal(t, negotiation.RoleInitiator, role.Opposite())

	_, err = negotiation.NewRole("owner")
	assert.True(t, errs.Is(err, errs.ErrInvalidInput))

	action, err := negotiation.NewAction("propose")
	require.NoError(t, err)
	assert.Equal(t, negotiation.ActionPropose, action)

	_, err = negotiation.NewAction("reject")
	assert.True(t, errs.Is(err, negotiation.ErrInvalidAction))

	status, err := negotiation.NewStatus("approved")
	require.NoError(t, err)
	assert.True(t, status.IsFinal())
	assert.False(t, negotiation.StatusPending.IsFinal())
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewProposalBuilder().With(c.mutate).BuildDomain()

			if c.errIs == nil {
				require.NotNil(t, actual)
				require.NoError(t, err)
			} else {
				require.Nil(t, actual)
				require.Error(t, err)
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}
