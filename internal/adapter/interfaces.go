// SPDX-License-Identifier: Apache-2.0

// Package adapter provides transport-layer abstractions for communicating
// with the remote backend.
//
// The primary abstraction is [BackendAdapter], which decouples the sync
// engine from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPBackendAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrConflict] for 409, [ErrUnauthenticated] for 401).
package adapter

import (
	"context"
	"time"

	"github.com/ashirkhanov/syncwell/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/backend_adapter_mock.go -package=mock

// BackendAdapter defines transport-agnostic communication with the remote
// backend. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type BackendAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests. The host application calls it
	// after every (re)authentication.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or
	// an empty string if no token has been set yet.
	Token() string

	// SessionClaims parses the stored bearer token and returns the
	// current principal's remote identity claims. Returns
	// [ErrUnauthenticated] (wrapped) when no token is set or the token
	// cannot be parsed.
	SessionClaims() (models.SessionClaims, error)

	// Ping probes backend reachability with a cheap unauthenticated
	// request. Used by the connectivity monitor.
	Ping(ctx context.Context) error

	// FindIdentity looks up the remote principal record by its stable
	// natural key. Returns [ErrNotFound] (wrapped) when no record exists.
	FindIdentity(ctx context.Context, handle string) (models.IdentityResolveResponse, error)

	// CreateIdentity creates the remote principal record for handle.
	// Returns [ErrConflict] (wrapped) when the record already exists,
	// which callers must treat as "created by someone else, re-fetch".
	CreateIdentity(ctx context.Context, handle string) (models.IdentityResolveResponse, error)

	// Upsert pushes one entity record, keyed by its client id, to the
	// kind-specific endpoint. The operation is idempotent: a duplicate
	// push returns the canonical remote id with a success response, so a
	// 409 never reaches the caller as an error here.
	Upsert(ctx context.Context, rec models.WireRecord) (models.UpsertResponse, error)

	// Changes fetches records of the given kind owned by ownerRemoteID
	// whose server-side UpdatedAt is strictly greater than since.
	Changes(ctx context.Context, kind models.Kind, ownerRemoteID string, since time.Time) (models.ChangesResponse, error)
}
