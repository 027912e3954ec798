package config

import (
	"fmt"
	"time"
)

// EngineBackend holds network settings used by the engine transport layer.
type EngineBackend struct {
	// BaseURL is the remote backend's base URL.
	BaseURL string
	// RequestTimeout is the bound applied to every outbound remote call.
	RequestTimeout time.Duration
	// Token is the initial bearer token, possibly empty.
	Token string
}

// EngineDB contains local database connection settings for the engine.
type EngineDB struct {
	// DSN is the SQLite connection string used by the local store.
	DSN string
}

// EngineRetry groups backoff and circuit breaker settings with defaults
// already applied.
type EngineRetry struct {
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	MaxAttempts      int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// EngineMonitor groups connectivity monitor settings with defaults applied.
type EngineMonitor struct {
	ProbeInterval time.Duration
	Debounce      time.Duration
}

// EngineWorkers contains background worker settings.
type EngineWorkers struct {
	// SyncInterval defines how often the periodic incremental sync runs.
	SyncInterval time.Duration
	// PushConcurrency bounds concurrent entity pushes within a pass.
	PushConcurrency int
}

// EngineConfig is the engine-facing configuration assembled from
// [StructuredConfig].
type EngineConfig struct {
	Backend EngineBackend
	Storage EngineDB
	Retry   EngineRetry
	Monitor EngineMonitor
	Workers EngineWorkers
}

// GetEngineConfig builds and validates the engine config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps the fields
// relevant to the engine runtime, fills defaults for unset tuning knobs, and
// validates the result.
func GetEngineConfig() (*EngineConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	engineCfg := &EngineConfig{
		Backend: EngineBackend{
			BaseURL:        cfg.Backend.BaseURL,
			RequestTimeout: cfg.Backend.RequestTimeout,
			Token:          cfg.Backend.Token,
		},
		Storage: EngineDB{
			DSN: cfg.Storage.DB.DSN,
		},
		Retry: EngineRetry{
			BaseDelay:        cfg.Retry.BaseDelay,
			MaxDelay:         cfg.Retry.MaxDelay,
			MaxAttempts:      cfg.Retry.MaxAttempts,
			BreakerThreshold: cfg.Retry.BreakerThreshold,
			BreakerCooldown:  cfg.Retry.BreakerCooldown,
		},
		Monitor: EngineMonitor{
			ProbeInterval: cfg.Monitor.ProbeInterval,
			Debounce:      cfg.Monitor.Debounce,
		},
		Workers: EngineWorkers{
			SyncInterval:    cfg.Workers.SyncInterval,
			PushConcurrency: cfg.Workers.PushConcurrency,
		},
	}
	engineCfg.applyDefaults()

	return engineCfg, engineCfg.validate()
}

func (cfg *EngineConfig) applyDefaults() {
	if cfg.Backend.RequestTimeout <= 0 {
		cfg.Backend.RequestTimeout = 15 * time.Second
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = 250 * time.Millisecond
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 5 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 4
	}
	if cfg.Retry.BreakerThreshold <= 0 {
		cfg.Retry.BreakerThreshold = 5
	}
	if cfg.Retry.BreakerCooldown <= 0 {
		cfg.Retry.BreakerCooldown = 30 * time.Second
	}
	if cfg.Monitor.ProbeInterval <= 0 {
		cfg.Monitor.ProbeInterval = 5 * time.Second
	}
	if cfg.Monitor.Debounce <= 0 {
		cfg.Monitor.Debounce = 1500 * time.Millisecond
	}
	if cfg.Workers.SyncInterval <= 0 {
		cfg.Workers.SyncInterval = 5 * time.Minute
	}
	if cfg.Workers.PushConcurrency <= 0 {
		cfg.Workers.PushConcurrency = 4
	}
}
