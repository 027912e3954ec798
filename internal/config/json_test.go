package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_AllSections(t *testing.T) {
	path := writeTempJSON(t, `{
		"backend": {"base_url": "https://api.example.com", "request_timeout": "15s"},
		"storage": {"db": {"dsn": "/tmp/syncwell.db"}},
		"retry": {"base_delay": "250ms", "max_delay": "5s", "max_attempts": 4,
			"breaker_threshold": 5, "breaker_cooldown": "30s"},
		"monitor": {"probe_interval": "5s", "debounce": "1500ms"},
		"workers": {"sync_interval": "5m", "push_concurrency": 4}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.RequestTimeout)
	assert.Equal(t, "/tmp/syncwell.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Retry.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Retry.BreakerCooldown)
	assert.Equal(t, 5*time.Second, cfg.Monitor.ProbeInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Monitor.Debounce)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 4, cfg.Workers.PushConcurrency)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	path := writeTempJSON(t, `{"backend": `)
	_, err := parseJSON(path)
	require.Error(t, err)
}

func TestDuration_UnmarshalString(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"90s"`)))
	assert.Equal(t, 90*time.Second, time.Duration(d))
}

func TestDuration_UnmarshalNumber(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, time.Duration(d))
}

func TestDuration_UnmarshalInvalid(t *testing.T) {
	var d Duration
	require.Error(t, d.UnmarshalJSON([]byte(`"not-a-duration"`)))
}
