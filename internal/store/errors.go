package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEntityNotFound is returned when a query or update targets an
	// entity (identified by local_id) that does not exist in the store.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrRemoteIDMismatch is returned when MarkClean is asked to record a
	// remote id for an entity that already carries a different one.
	// Remote ids are immutable for the entity's lifetime.
	ErrRemoteIDMismatch = errors.New("remote id already set to a different value")

	// ErrIdentityNotCached is returned when the identity cache has no
	// mapping for the requested owner.
	ErrIdentityNotCached = errors.New("identity mapping not cached")

	// ErrQueueEmpty is returned when a queue read finds no entries.
	ErrQueueEmpty = errors.New("operation queue is empty")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a read-only query
	// against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")
)
