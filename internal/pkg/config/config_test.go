//go:build unit

package config_test

import (
	"testing"
	"time"

	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "hub")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("RESCHEDULE_TOKEN_SECRET", "links")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := config.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 7*24*time.Hour, cfg.Links.DecisionTTL)
		assert.False(t, cfg.Mail.Enabled)
		assert.Equal(t, 3, cfg.Mail.MaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.Mail.BackoffBase)
		assert.Equal(t, "postgres://app:pw@localhost:5432/hub?sslmode=disable&timezone=UTC", cfg.DB.BuildDSN())
	})

	t.Run("missing link secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RESCHEDULE_TOKEN_SECRET", "")

		_, err := config.LoadConfig()
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrConfiguration))
	})

	t.Run("sending requires an api key", func(t *testing.T) {
		setRequired(t)
		t.Setenv("NOTIFICATIONS_ENABLED", "true")

		_, err := config.LoadConfig()
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrConfiguration))
	})
}

func TestNewTestConfig(t *testing.T) {
	require.NoError(t, config.NewTestConfig().Validate())
}
