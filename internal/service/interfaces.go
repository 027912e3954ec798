// SPDX-License-Identifier: Apache-2.0

// Package service contains the engine's coordination layer: identity
// resolution, the sync orchestrator, the periodic sync job, and the status
// publisher that feeds the host application.
package service

import (
	"context"
	"time"

	"github.com/ashirkhanov/syncwell/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// IdentityResolver maps a local owner to its remote principal identifier.
// Resolution is find-or-create by the owner's stable handle; a concurrent
// creation by another device is converged by re-fetching. Resolved mappings
// are cached durably until Invalidate.
type IdentityResolver interface {
	// Resolve returns the remote principal id for the local owner.
	// Failures are never papered over with a fabricated id; connectivity
	// failures propagate as retryable errors.
	Resolve(ctx context.Context, ownerID, handle string) (string, error)

	// Invalidate drops the cached mapping for owner. Called on sign-out.
	Invalidate(ctx context.Context, ownerID string) error
}

// Syncer runs sync passes. Implemented by Orchestrator; consumed by the
// periodic SyncJob and the connectivity-driven workers.
type Syncer interface {
	// RunFullSync executes a complete push+pull pass synchronously.
	RunFullSync(ctx context.Context) (models.SyncReport, error)

	// RunIncrementalSync executes a push of dirty entities plus a pull
	// since the persisted cursors, synchronously.
	RunIncrementalSync(ctx context.Context) (models.SyncReport, error)
}

// SyncJob periodically triggers sync passes in the background.
type SyncJob interface {
	// Start launches the background ticker loop. Any previously running
	// loop is stopped first.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the loop and blocks until it has exited.
	Stop()
}
