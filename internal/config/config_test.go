package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SHOPIFY_API_KEY", "key")
	t.Setenv("SHOPIFY_API_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.AppURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file", cfg.DBBackend)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Empty(t, cfg.StateBackend)
	assert.False(t, cfg.DevAuthFallback)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("SHOPIFY_API_KEY", "")
	t.Setenv("SHOPIFY_API_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnsupportedBackends(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("DB_BACKEND", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_BACKEND", "file")
	t.Setenv("STATE_BACKEND", "memcached")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_DevFallbackRequiresLiteralTrue(t *testing.T) {
	setRequiredEnv(t)

	for value, want := range map[string]bool{
		"true": true,
		"TRUE": false,
		"1":    false,
		"yes":  false,
		"":     false,
	} {
		t.Setenv("DEV_AUTH_FALLBACK", value)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, want, cfg.DevAuthFallback, "value %q", value)
	}
}
