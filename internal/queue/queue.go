// SPDX-License-Identifier: Apache-2.0

// Package queue implements the durable offline operation queue. Local
// mutations made while the backend is unreachable are recorded here and
// replayed in enqueue order once connectivity returns.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/internal/store"
	"github.com/ashirkhanov/syncwell/models"
)

// ApplyFunc replays a single queued operation against the backend.
type ApplyFunc func(ctx context.Context, op models.QueuedOp) error

// Queue wraps the durable queue repository with coalescing on enqueue and
// ordered replay on drain.
type Queue struct {
	repo   store.QueueRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewQueue(repo store.QueueRepository, log *logger.Logger) *Queue {
	return &Queue{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Enqueue records an operation for later replay. A consecutive duplicate of
// the entity's most recent queued operation is coalesced into it instead of
// growing the queue; replaying an upsert twice is redundant, replaying a
// delete twice is too. Reports whether a new operation was appended.
func (q *Queue) Enqueue(ctx context.Context, localID, ownerID string, kind models.Kind, op models.OpType) (bool, error) {
	tail, err := q.repo.Tail(ctx, localID)
	if err != nil && !errors.Is(err, store.ErrQueueEmpty) {
		return false, fmt.Errorf("enqueue %s: %w", localID, err)
	}
	if err == nil && tail.Op == op {
		q.logger.Debug().
			Str("local_id", localID).
			Str("op", string(op)).
			Msg("coalesced duplicate queued operation")
		return false, nil
	}

	_, err = q.repo.Append(ctx, models.QueuedOp{
		LocalID:    localID,
		OwnerID:    ownerID,
		Kind:       kind,
		Op:         op,
		EnqueuedAt: q.now(),
	})
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", localID, err)
	}
	return true, nil
}

// Pending returns the queued operations in replay order.
func (q *Queue) Pending(ctx context.Context) ([]models.QueuedOp, error) {
	return q.repo.List(ctx, 0)
}

// Drain replays queued operations in order through apply and removes each
// one that is settled. A retryable failure stops the drain with the failed
// operation still at the head, so a later drain resumes exactly there. A
// terminal failure or a vanished entity drops the operation and the drain
// continues. Returns the number of operations successfully applied.
func (q *Queue) Drain(ctx context.Context, apply ApplyFunc) (int, error) {
	ops, err := q.repo.List(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("drain: %w", err)
	}

	applied := 0
	for _, op := range ops {
		if err = ctx.Err(); err != nil {
			return applied, err
		}

		err = apply(ctx, op)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, store.ErrEntityNotFound):
			q.logger.Warn().
				Int64("seq", op.Seq).
				Str("local_id", op.LocalID).
				Msg("dropping queued operation for vanished entity")
		case retry.Retryable(err):
			return applied, fmt.Errorf("drain stalled at seq %d: %w", op.Seq, err)
		case errors.Is(err, adapter.ErrUnauthenticated):
			// Credentials are gone, not the data. Stop here; everything
			// still queued replays after the next sign-in.
			return applied, fmt.Errorf("drain halted at seq %d: %w", op.Seq, err)
		default:
			q.logger.Error().Err(err).
				Int64("seq", op.Seq).
				Str("local_id", op.LocalID).
				Str("op", string(op.Op)).
				Msg("dropping queued operation after terminal failure")
		}

		if removeErr := q.repo.Remove(ctx, op.Seq); removeErr != nil {
			return applied, fmt.Errorf("drain: %w", removeErr)
		}
	}

	return applied, nil
}
