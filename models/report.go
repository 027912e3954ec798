// SPDX-License-Identifier: Apache-2.0

package models

import "time"

// SyncState is the orchestrator's externally observable state.
type SyncState string

const (
	// SyncIdle means no pass is running and the last pass (if any)
	// completed without entity failures.
	SyncIdle SyncState = "idle"

	// SyncRunning means a pass is currently executing.
	SyncRunning SyncState = "syncing"

	// SyncDegraded means the last pass finished but left failures behind:
	// some entities are still dirty and listed in the report errors.
	SyncDegraded SyncState = "degraded"
)

// SyncError describes one entity-level failure from a sync pass. Failures
// never abort the pass; they are collected and reported in aggregate.
type SyncError struct {
	Kind    Kind   `json:"kind"`
	LocalID string `json:"local_id"`
	Message string `json:"message"`
}

// SyncReport is the aggregate outcome of a single sync pass.
type SyncReport struct {
	Full       bool        `json:"full"`
	Pushed     int         `json:"pushed"`
	Pulled     int         `json:"pulled"`
	Skipped    int         `json:"skipped"`
	Errors     []SyncError `json:"errors,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Failed reports whether any entity failed during the pass.
func (r SyncReport) Failed() bool {
	return len(r.Errors) > 0
}

// SyncStatus is the snapshot published to the UI layer after every state
// change. All fields are value types so a snapshot is safe to retain.
type SyncStatus struct {
	State        SyncState   `json:"state"`
	IsSyncing    bool        `json:"is_syncing"`
	Progress     float64     `json:"progress"`
	LastSyncDate *time.Time  `json:"last_sync_date,omitempty"`
	Errors       []SyncError `json:"errors,omitempty"`
}
