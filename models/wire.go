// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"time"
)

// WireRecord is the remote representation of a synced entity.
//
// ClientID carries the entity's LocalID and acts as the natural key for
// idempotent upserts: pushing the same record twice yields one remote row.
type WireRecord struct {
	// RemoteID is the server-assigned identifier. Empty on upload of a
	// never-pushed entity; always set on records coming down in a pull.
	RemoteID string `json:"remote_id,omitempty"`

	// ClientID is the client-assigned natural key (the entity's LocalID).
	ClientID string `json:"client_id"`

	// OwnerRemoteID is the remote identifier of the owning principal.
	OwnerRemoteID string `json:"owner_remote_id"`

	// Kind names the entity kind the payload belongs to.
	Kind Kind `json:"kind"`

	// Payload holds the kind-specific fields in wire form.
	Payload json.RawMessage `json:"payload"`

	// Deleted is true when the record is a propagated deletion.
	Deleted bool `json:"deleted"`

	// UpdatedAt is the server-side last-modification time, used as the
	// pull cursor value.
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertRequest is the body of a push for a single entity.
type UpsertRequest struct {
	Record WireRecord `json:"record"`
}

// UpsertResponse acknowledges a push. The server returns the canonical
// RemoteID whether the record was created or already existed.
type UpsertResponse struct {
	RemoteID  string    `json:"remote_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangesResponse is the result of a filtered fetch-since-cursor request.
type ChangesResponse struct {
	Records []WireRecord `json:"records"`

	// ServerTime is the server clock at response time, returned so
	// clients never have to trust their own clock for cursor math.
	ServerTime time.Time `json:"server_time"`
}

// IdentityResolveRequest asks the server to find or create the remote
// principal record for the given natural key.
type IdentityResolveRequest struct {
	Handle string `json:"handle"`
}

// IdentityResolveResponse carries the remote principal identifier.
type IdentityResolveResponse struct {
	RemoteID string `json:"remote_id"`

	// Created is true when the record was created by this call rather
	// than found.
	Created bool `json:"created"`
}
