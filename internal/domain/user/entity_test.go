//go:build unit

package user_test

import (
	"testing"

	"practice-hub/internal/domain/user"
	"practice-hub/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name   string
	mutate func(*builder.ContactBuilder)
	errIs  error
}

func TestContact(t *testing.T) {
	t.Run("基本成功ケース", func(t *testing.T) {
		actual, err := builder.NewContactBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.Equal(t, "test@example.com", actual.Email().Value())
		assert.Equal(t, "Test User", actual.DisplayName())
	})

	t.Run("表示名が空ならメールのローカル部", func(t *testing.T) {
		actual, err := builder.NewContactBuilder().WithDisplayName("  ").BuildDomain()
		require.NoError(t, err)
		assert.Equal(t, "test", actual.DisplayName())
	})

	t.Run("メールアドレス検証", func(t *testing.T) {
		runCases(t, []testCase{
			{
				name:   "有効なメールアドレスOK",
				mutate: func(b *builder.ContactBuilder) { b.WithEmail("valid@example.com") },
			},
			{
				name:   "前後の空白は除去OK",
				mutate: func(b *builder.ContactBuilder) { b.WithEmail("  valid@example.com ") },
			},
			{
				name:   "空のメールアドレスNG",
				mutate: func(b *builder.ContactBuilder) { b.WithEmail("") },
				errIs:  user.ErrInvalidEmail,
			},
			{
				name:   "無効な形式NG",
				mutate: func(b *builder.ContactBuilder) { b.WithEmail("invalid-email") },
				errIs:  user.ErrInvalidEmail,
			},
			{
				name:   "@なしNG",
				mutate: func(b *builder.ContactBuilder) { b.WithEmail("invalidemail.com") },
				errIs:  user.ErrInvalidEmail,
			},
		})
	})

	t.Run("大文字小文字を区別しない比較", func(t *testing.T) {
		email, err := user.NewEmail("Guest@Example.com")
		require.NoError(t, err)
		assert.True(t, email.Matches("guest@example.COM"))
		assert.False(t, email.Matches("other@example.com"))
	})

	t.Run("ロール検証", func(t *testing.T) {
		_, err := user.NewRole("member")
		require.NoError(t, err)
		_, err = user.NewRole("operator")
		require.ErrorIs(t, err, user.ErrInvalidRole)
	})
}

func runCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewContactBuilder().With(c.mutate).BuildDomain()

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
