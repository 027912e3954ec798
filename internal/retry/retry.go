// SPDX-License-Identifier: Apache-2.0

// Package retry wraps remote operations with exponential backoff, jitter,
// and a per-endpoint-class circuit breaker.
//
// The backoff schedule is built on sethvargo/go-retry: exponential with
// factor 2 starting at the configured base delay, capped at the configured
// maximum, with ±20% jitter so that many dirty entities do not retry in
// lockstep. Terminal errors (see Retryable) abort immediately and are
// surfaced to the caller for user-visible reporting.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/sethvargo/go-retry"
)

// Endpoint classes tracked independently by the circuit breaker.
const (
	ClassIdentity = "identity"
	ClassUpsert   = "upsert"
	ClassChanges  = "changes"
	ClassPing     = "ping"
)

// Controller executes remote operations under the configured retry policy.
type Controller struct {
	cfg     config.EngineRetry
	breaker *Breaker
	logger  *logger.Logger
}

// NewController constructs a Controller from cfg. cfg normally arrives with
// defaults applied (see config.GetEngineConfig), but zero values are clamped
// here anyway: a non-positive attempt budget would underflow the uint64 retry
// count in Execute into an effectively unlimited one, and a non-positive base
// delay panics inside the backoff constructor.
func NewController(cfg config.EngineRetry, log *logger.Logger) *Controller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 250 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.BreakerThreshold < 1 {
		cfg.BreakerThreshold = 1
	}

	return &Controller{
		cfg:     cfg,
		breaker: NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		logger:  log,
	}
}

// Execute runs op under backoff. class selects the circuit breaker bucket.
//
// Retryable failures are retried up to the configured attempt budget;
// terminal failures and an open circuit return immediately. The error of
// the final attempt is returned unwrapped enough for errors.Is matching.
func (c *Controller) Execute(ctx context.Context, class string, op func(ctx context.Context) error) error {
	backoff := retry.NewExponential(c.cfg.BaseDelay)
	backoff = retry.WithCappedDuration(c.cfg.MaxDelay, backoff)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxRetries(uint64(c.cfg.MaxAttempts-1), backoff)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		if allowErr := c.breaker.Allow(class); allowErr != nil {
			// Fail fast, no network call, no further attempts.
			return allowErr
		}

		opErr := op(ctx)
		c.breaker.Record(class, opErr)
		if opErr == nil {
			return nil
		}

		if Retryable(opErr) {
			c.logger.Debug().
				Str("class", class).
				Int("attempt", attempt).
				Err(opErr).
				Msg("retryable remote failure, backing off")
			return retry.RetryableError(opErr)
		}

		return opErr
	})
	if err != nil {
		return fmt.Errorf("execute %s: %w", class, err)
	}

	return nil
}
