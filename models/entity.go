// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"time"
)

// Kind identifies the domain type of a synced entity. The sync engine treats
// payloads as opaque; Kind is what selects the mapper, the remote endpoint,
// and the cursor row for an entity.
type Kind string

const (
	KindProfile Kind = "profile"
	KindMeal    Kind = "meal"
	KindReading Kind = "glucose_reading"
	KindScan    Kind = "meal_scan"
)

// KindOrder is the fixed order in which a full sync processes entity kinds.
// Profiles come first because every other kind references its owner's
// profile on the remote side.
var KindOrder = []Kind{KindProfile, KindMeal, KindReading, KindScan}

// Valid reports whether k is one of the known entity kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindProfile, KindMeal, KindReading, KindScan:
		return true
	}
	return false
}

// Entity is the syncable envelope stored around every domain record.
//
// The engine only reads and writes the bookkeeping fields; Payload is the
// kind-specific document (one of the payload types in payloads.go) and is
// carried through as raw JSON.
type Entity struct {
	// LocalID is the stable local identifier, assigned at creation and
	// never reused.
	LocalID string `json:"local_id"`

	// RemoteID is the remote-assigned identifier. Nil until the first
	// successful push; immutable once set.
	RemoteID *string `json:"remote_id,omitempty"`

	// OwnerID is the local identifier of the owning principal.
	OwnerID string `json:"owner_id"`

	// Kind selects the entity's mapper and remote endpoint.
	Kind Kind `json:"kind"`

	// Payload holds the kind-specific fields, opaque to the sync engine.
	Payload json.RawMessage `json:"payload"`

	// NeedsSync is true whenever the entity has local changes that have
	// not been confirmed remotely.
	NeedsSync bool `json:"needs_sync"`

	// Deleted marks the entity as a tombstone: deleted locally, deletion
	// still to be (or already) propagated. Tombstones are never purged by
	// the engine itself.
	Deleted bool `json:"deleted"`

	// LastSyncedAt is the time of the last successful push or pull
	// application for this entity. Nil until the first sync.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// UpdatedAt is the local last-modification time, monotonic per entity.
	UpdatedAt time.Time `json:"updated_at"`
}

// Dirty reports whether the entity has unpushed local changes.
func (e *Entity) Dirty() bool {
	return e.NeedsSync
}

// Pushed reports whether the entity has ever been acknowledged by the remote.
func (e *Entity) Pushed() bool {
	return e.RemoteID != nil && *e.RemoteID != ""
}
