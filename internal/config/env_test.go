package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_BackendAndStorage(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com")
	t.Setenv("BACKEND_REQUEST_TIMEOUT", "20s")
	t.Setenv("STORAGE_DB_DSN", "/tmp/engine.db")
	t.Setenv("WORKERS_SYNC_INTERVAL", "2m")
	t.Setenv("RETRY_MAX_ATTEMPTS", "7")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, "/tmp/engine.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 2*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
}

func TestParseEnv_EmptyEnvironment(t *testing.T) {
	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))
	assert.Empty(t, cfg.Backend.BaseURL)
	assert.Zero(t, cfg.Workers.SyncInterval)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	t.Setenv("MONITOR_DEBOUNCE", "soon")

	cfg := &StructuredConfig{}
	require.Error(t, parseEnv(cfg))
}

func TestEngineConfigValidate(t *testing.T) {
	cfg := &EngineConfig{
		Backend: EngineBackend{BaseURL: "https://api.example.com"},
		Storage: EngineDB{DSN: "/tmp/engine.db"},
	}
	require.NoError(t, cfg.validate())

	cfg.Backend.BaseURL = ""
	assert.ErrorIs(t, cfg.validate(), ErrInvalidBackendConfigs)

	cfg.Backend.BaseURL = "https://api.example.com"
	cfg.Storage.DSN = ":memory:"
	assert.ErrorIs(t, cfg.validate(), ErrInvalidStorageConfigs)
}

func TestEngineConfigDefaults(t *testing.T) {
	cfg := &EngineConfig{}
	cfg.applyDefaults()

	assert.Equal(t, 15*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Retry.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Retry.BreakerCooldown)
	assert.Equal(t, 1500*time.Millisecond, cfg.Monitor.Debounce)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 4, cfg.Workers.PushConcurrency)
}
