// SPDX-License-Identifier: Apache-2.0

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// engine invariants before it is used at startup.
//
// Currently a no-op placeholder; the engine-level view applies its own
// validation in [EngineConfig.validate].
func (cfg *StructuredConfig) validate() error {
	return nil
}

// validate checks the engine config after defaults have been applied.
// The backend URL and a durable (non in-memory) DSN are the only values that
// cannot be defaulted.
func (cfg *EngineConfig) validate() error {
	if cfg.Backend.BaseURL == "" {
		return ErrInvalidBackendConfigs
	}

	if cfg.Storage.DSN == "" || strings.Contains(cfg.Storage.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	return nil
}
