package adapter

import "errors"

// Sentinel errors mapped from transport-level failures. Callers match with
// [errors.Is]; the retry controller uses them to classify an error as
// retryable or terminal.
var (
	// ErrUnreachable indicates a network-level failure: the request never
	// produced an HTTP response (DNS failure, refused connection, timeout).
	ErrUnreachable = errors.New("backend unreachable")

	// ErrUnauthenticated indicates missing or expired credentials (401).
	ErrUnauthenticated = errors.New("client unauthenticated")

	// ErrForbidden indicates permanently denied authorization (403).
	ErrForbidden = errors.New("access forbidden")

	// ErrNotFound indicates the requested record does not exist (404).
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a duplicate-key or concurrent-write response
	// (409). For idempotent upserts a conflict is a success signal.
	ErrConflict = errors.New("remote record conflict")

	// ErrInvalidPayload indicates the server rejected the record as
	// malformed (422). Terminal for the entity; never retried blindly.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrThrottled indicates a rate-limit response (429).
	ErrThrottled = errors.New("request throttled")

	// ErrServerUnavailable indicates a transient server failure (5xx).
	ErrServerUnavailable = errors.New("server unavailable")
)
