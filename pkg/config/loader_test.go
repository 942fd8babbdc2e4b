package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbilling/billingkit/pkg/config"
)

type testConfig struct {
	Site     string        `env:"TEST_CHARGEBEE_SITE,required"`
	Prefix   string        `env:"TEST_CACHE_PREFIX" envDefault:"entitlements"`
	Lifetime time.Duration `env:"TEST_SESSION_LIFETIME" envDefault:"2h"`
}

func TestLoad(t *testing.T) {
	t.Run("reads values and applies defaults", func(t *testing.T) {
		t.Setenv("TEST_CHARGEBEE_SITE", "acme-test")

		cfg, err := config.Load[testConfig]()
		require.NoError(t, err)
		assert.Equal(t, "acme-test", cfg.Site)
		assert.Equal(t, "entitlements", cfg.Prefix)
		assert.Equal(t, 2*time.Hour, cfg.Lifetime)
	})

	t.Run("overrides defaults from the environment", func(t *testing.T) {
		t.Setenv("TEST_CHARGEBEE_SITE", "acme-test")
		t.Setenv("TEST_SESSION_LIFETIME", "45m")

		cfg, err := config.Load[testConfig]()
		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, cfg.Lifetime)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		_, err := config.Load[testConfig]()
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}
