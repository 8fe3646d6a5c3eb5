package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8085, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.False(t, cfg.SubscriptionActive)
	assert.Equal(t, time.Second, cfg.RefreshDebounce)
	assert.Equal(t, ":8085", cfg.GetHTTPAddr())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPHERELOG_HTTP_PORT", "9090")
	t.Setenv("SPHERELOG_DB_DRIVER", "postgres")
	t.Setenv("SPHERELOG_POSTGRES_DSN", "postgres://localhost/spherelog")
	t.Setenv("SPHERELOG_SUBSCRIPTION_ACTIVE", "true")
	t.Setenv("SPHERELOG_REFRESH_DEBOUNCE", "250ms")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.SubscriptionActive)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshDebounce)
}

func TestValidate(t *testing.T) {
	t.Setenv("SPHERELOG_DB_DRIVER", "postgres")
	if _, err := New(); err == nil {
		t.Fatal("postgres driver without DSN must fail validation")
	}

	t.Setenv("SPHERELOG_DB_DRIVER", "oracle")
	if _, err := New(); err == nil {
		t.Fatal("unknown driver must fail validation")
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsTesting())
	assert.False(t, cfg.IsProduction())
}
