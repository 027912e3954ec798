// SPDX-License-Identifier: Apache-2.0

// Package store implements the local persistence layer of the sync engine
// on SQLite.
//
// All repositories share one [DB] handle. Writes go through a single-writer
// discipline: every mutating operation (and every transaction) holds the
// DB's write lock, so metadata and payload can never disagree about sync
// state after a crash — they are written in the same transaction. Readers
// are not serialised.
package store

import (
	"context"
	"time"

	"github.com/ashirkhanov/syncwell/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// EntityRepository persists syncable entities together with their sync
// metadata. Metadata transitions happen in the same transaction as the
// payload write they accompany.
type EntityRepository interface {
	// Save inserts or locally updates an entity. A save marks the entity
	// dirty (needs_sync=true) and refreshes its updated_at; it is the
	// "local mutation" entry point.
	Save(ctx context.Context, e *models.Entity) error

	// Get returns the entity with the given local id, tombstoned or not.
	// Returns ErrEntityNotFound if no such entity exists.
	Get(ctx context.Context, localID string) (models.Entity, error)

	// GetByRemoteID returns the entity carrying the given remote id, or
	// ErrEntityNotFound when no pushed entity matches.
	GetByRemoteID(ctx context.Context, remoteID string) (models.Entity, error)

	// GetDirty returns all entities of owner with needs_sync=true,
	// optionally restricted to the given kinds, ordered by updated_at.
	GetDirty(ctx context.Context, ownerID string, kinds ...models.Kind) ([]models.Entity, error)

	// MarkClean records a successful remote acknowledgment of the snapshot
	// stamped pushedAt: in one transaction it stores the remote id, sets
	// last_synced_at, and clears needs_sync, unless the entity's
	// updated_at no longer matches pushedAt, in which case it stays dirty.
	// Returns ErrRemoteIDMismatch if the entity already carries a
	// different remote id.
	MarkClean(ctx context.Context, localID, remoteID string, pushedAt, at time.Time) error

	// MarkDeleted tombstones the entity: deleted=true and dirty again, so
	// the deletion propagates on the next push. The row is never removed.
	MarkDeleted(ctx context.Context, localID string, at time.Time) error

	// ApplyRemote applies a pulled record with server-wins semantics for
	// owner ownerID. A local tombstone is preserved (the pull never
	// resurrects it); a record unknown locally is created already clean.
	// Returns true when the record was applied, false when a tombstone
	// suppressed it.
	ApplyRemote(ctx context.Context, e models.Entity, ownerID string) (bool, error)
}

// CursorRepository persists the per-(kind, owner) pull high-water marks.
type CursorRepository interface {
	// Get returns the cursor for (kind, owner). A missing row yields a
	// zero cursor, meaning "pull everything".
	Get(ctx context.Context, kind models.Kind, ownerID string) (models.Cursor, error)

	// Advance moves the cursor forward to since. A value at or behind
	// the persisted cursor is a no-op: cursors never move backwards.
	Advance(ctx context.Context, kind models.Kind, ownerID string, since time.Time) error
}

// IdentityCache persists the ownerID -> remoteOwnerID mapping.
type IdentityCache interface {
	// Lookup returns the cached remote id for owner, or
	// ErrIdentityNotCached when no mapping exists.
	Lookup(ctx context.Context, ownerID string) (string, error)

	// Store caches the mapping, overwriting any previous value.
	Store(ctx context.Context, ownerID, remoteOwnerID string) error

	// Invalidate removes the mapping for owner. Called on sign-out.
	Invalidate(ctx context.Context, ownerID string) error
}

// QueueRepository is the durable FIFO backing the offline operation queue.
type QueueRepository interface {
	// Append adds an operation to the tail of the queue and returns it
	// with the assigned sequence number.
	Append(ctx context.Context, op models.QueuedOp) (models.QueuedOp, error)

	// List returns up to limit operations from the head of the queue in
	// sequence order. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]models.QueuedOp, error)

	// Tail returns the most recently appended operation for the given
	// entity, or ErrQueueEmpty when the entity has none queued.
	Tail(ctx context.Context, localID string) (models.QueuedOp, error)

	// Remove deletes the operation with the given sequence number.
	Remove(ctx context.Context, seq int64) error
}
