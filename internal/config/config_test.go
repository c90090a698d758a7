package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkessler/leadpulse/internal/types"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadpulse_test")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "leadpulse/1.0", cfg.RedditUserAgent)
	assert.False(t, cfg.UseBrowser)
	assert.InDelta(t, 0.7, cfg.HighIntentThreshold, 1e-9)
	assert.Equal(t, 30, cfg.RecentWindowDays)
	assert.Equal(t, DefaultWeights(), cfg.Weights)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leadpulse_test")
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("USE_BROWSER", "true")
	t.Setenv("SCORING_WEIGHT_CODE_ACTIVITY", "0.5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.UseBrowser)
	assert.InDelta(t, 0.5, cfg.Weights[types.CategoryCodeActivity], 1e-9)
	// Untouched categories keep their defaults.
	assert.InDelta(t, 0.20, cfg.Weights[types.CategoryForumDiscussion], 1e-9)
}

func TestFromEnv_BadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad port", key: "PORT", value: "eighty"},
		{name: "bad timeout", key: "REQUEST_TIMEOUT", value: "soon"},
		{name: "bad weight", key: "SCORING_WEIGHT_TECH_STACK", value: "lots"},
		{name: "negative weight", key: "SCORING_WEIGHT_TECH_STACK", value: "-0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/leadpulse_test")
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabaseURL:         "postgres://localhost/leadpulse_test",
			Port:                8080,
			RequestTimeout:      15 * time.Second,
			Weights:             DefaultWeights(),
			HighIntentThreshold: 0.7,
			RecentWindowDays:    30,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg := base()
		cfg.DatabaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "too-short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("timeout below floor", func(t *testing.T) {
		cfg := base()
		cfg.RequestTimeout = 100 * time.Millisecond
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown weight category", func(t *testing.T) {
		cfg := base()
		cfg.Weights[types.Category("bogus")] = 0.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := base()
		cfg.HighIntentThreshold = 1.5
		assert.Error(t, cfg.Validate())
	})
}
