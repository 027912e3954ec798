package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-b backend base URL
//	-d local database DSN
//	-c/-config json file path with configs
//	-request-timeout remote request timeout (e.g., "15s")
//	-sync-interval periodic sync interval (e.g., "5m")
//	-push-concurrency bounded push worker count
func ParseFlags() *StructuredConfig {
	var backendURL string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var syncInterval time.Duration
	var pushConcurrency int

	flag.StringVar(&backendURL, "b", "", "Backend base URL")
	flag.StringVar(&databaseDSN, "d", "", "Local database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Remote request timeout (e.g., 15s)")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Periodic sync interval (e.g., 5m)")
	flag.IntVar(&pushConcurrency, "push-concurrency", 0, "Bounded push worker count")

	flag.Parse()

	return &StructuredConfig{
		Backend: Backend{
			BaseURL:        backendURL,
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Workers: Workers{
			SyncInterval:    syncInterval,
			PushConcurrency: pushConcurrency,
		},
		JSONFilePath: jsonConfigPath,
	}
}
