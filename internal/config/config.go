// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the syncwell
// engine. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Backend holds remote backend connection settings.
	Backend Backend `envPrefix:"BACKEND_"`

	// Storage holds local persistence settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Retry holds backoff and circuit breaker settings.
	Retry Retry `envPrefix:"RETRY_"`

	// Monitor holds connectivity monitor settings.
	Monitor Monitor `envPrefix:"MONITOR_"`

	// Workers holds background sync worker settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Backend holds connection settings for the remote backend.
type Backend struct {
	// BaseURL is the remote backend's base URL
	// (e.g. "https://api.example.com").
	// Env: BACKEND_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds every single remote call (e.g. "15s").
	// Env: BACKEND_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Token is the bearer token presented on authenticated requests.
	// Normally supplied by the host application at runtime; the config
	// value exists for the demo binary and development.
	// Env: BACKEND_TOKEN
	Token string `env:"TOKEN"`
}

// Storage holds local database settings.
type Storage struct {
	// DB holds the local SQLite connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite store.
type DB struct {
	// DSN is the SQLite data source name, typically a file path
	// (e.g. "/var/lib/syncwell/local.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Retry holds backoff and circuit breaker tuning knobs.
type Retry struct {
	// BaseDelay is the first backoff delay (e.g. "250ms").
	// Env: RETRY_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// MaxDelay caps the exponential backoff (e.g. "5s").
	// Env: RETRY_MAX_DELAY
	MaxDelay time.Duration `env:"MAX_DELAY"`

	// MaxAttempts bounds the number of tries per remote operation.
	// Env: RETRY_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// BreakerThreshold is the number of consecutive failures per endpoint
	// class after which the circuit opens.
	// Env: RETRY_BREAKER_THRESHOLD
	BreakerThreshold int `env:"BREAKER_THRESHOLD"`

	// BreakerCooldown is how long an open circuit fails fast before
	// half-opening to probe (e.g. "30s").
	// Env: RETRY_BREAKER_COOLDOWN
	BreakerCooldown time.Duration `env:"BREAKER_COOLDOWN"`
}

// Monitor holds connectivity monitor tuning knobs.
type Monitor struct {
	// ProbeInterval is how often reachability is probed (e.g. "5s").
	// Env: MONITOR_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// Debounce is how long a reachability transition must hold before it
	// is reported (e.g. "1500ms"). Suppresses flapping.
	// Env: MONITOR_DEBOUNCE
	Debounce time.Duration `env:"DEBOUNCE"`
}

// Workers holds background sync worker settings.
type Workers struct {
	// SyncInterval defines how often the periodic incremental sync runs.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// PushConcurrency is the bounded number of concurrent entity pushes
	// within one pass.
	// Env: WORKERS_PUSH_CONCURRENCY
	PushConcurrency int `env:"PUSH_CONCURRENCY"`
}

// GetStructuredConfig loads, merges, and validates the engine configuration
// from all available sources in the following priority order (last source
// wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
