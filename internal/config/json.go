package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and the
// string-friendly [Duration] type, so operators can write "15s" in the file.
type StructuredJSONConfig struct {
	Backend struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
		Token          string   `json:"token"`
	} `json:"backend,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Retry struct {
		BaseDelay        Duration `json:"base_delay"`
		MaxDelay         Duration `json:"max_delay"`
		MaxAttempts      int      `json:"max_attempts"`
		BreakerThreshold int      `json:"breaker_threshold"`
		BreakerCooldown  Duration `json:"breaker_cooldown"`
	} `json:"retry,omitempty"`

	Monitor struct {
		ProbeInterval Duration `json:"probe_interval"`
		Debounce      Duration `json:"debounce"`
	} `json:"monitor,omitempty"`

	Workers struct {
		SyncInterval    Duration `json:"sync_interval"`
		PushConcurrency int      `json:"push_concurrency"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Backend: Backend{
			BaseURL:        jsonCfg.Backend.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.Backend.RequestTimeout),
			Token:          jsonCfg.Backend.Token,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Retry: Retry{
			BaseDelay:        time.Duration(jsonCfg.Retry.BaseDelay),
			MaxDelay:         time.Duration(jsonCfg.Retry.MaxDelay),
			MaxAttempts:      jsonCfg.Retry.MaxAttempts,
			BreakerThreshold: jsonCfg.Retry.BreakerThreshold,
			BreakerCooldown:  time.Duration(jsonCfg.Retry.BreakerCooldown),
		},
		Monitor: Monitor{
			ProbeInterval: time.Duration(jsonCfg.Monitor.ProbeInterval),
			Debounce:      time.Duration(jsonCfg.Monitor.Debounce),
		},
		Workers: Workers{
			SyncInterval:    time.Duration(jsonCfg.Workers.SyncInterval),
			PushConcurrency: jsonCfg.Workers.PushConcurrency,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}
