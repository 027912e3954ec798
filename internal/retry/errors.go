package retry

import (
	"context"
	"errors"
	"net"

	"github.com/ashirkhanov/syncwell/internal/adapter"
)

// ErrCircuitOpen is returned by Execute when the endpoint's circuit breaker
// is open and the operation was not attempted. It classifies as retryable:
// the entity stays dirty and is retried on a later pass, after the cooldown.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Retryable reports whether err is worth retrying: connectivity loss,
// timeouts, throttling, and transient server failures are; validation,
// authentication, and authorization failures are terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, adapter.ErrUnreachable),
		errors.Is(err, adapter.ErrServerUnavailable),
		errors.Is(err, adapter.ErrThrottled),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
