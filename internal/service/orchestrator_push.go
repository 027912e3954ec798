// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ashirkhanov/syncwell/internal/mapper"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/models"
)

// pushPass uploads every dirty entity of the owner, kind by kind in
// KindOrder. Entities within a kind are independent and pushed through a
// bounded worker pool; a retryable failure stops the phase so the remaining
// entities stay queued for the next pass.
func (o *Orchestrator) pushPass(ctx context.Context, report *models.SyncReport, ownerID, remoteOwner string) error {
	var halted error

	for _, kind := range models.KindOrder {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		dirty, err := o.entities.GetDirty(ctx, ownerID, kind)
		if err != nil {
			return fmt.Errorf("dirty entities for %s: %w", kind, err)
		}
		if len(dirty) == 0 {
			continue
		}
		o.noteProgress(len(dirty), 0)

		halted = o.pushBatch(ctx, report, remoteOwner, dirty)
		if halted != nil {
			break
		}
	}
	return halted
}

// pushBatch pushes one kind's dirty entities with bounded concurrency. Each
// entity appears at most once in the batch, so no two workers ever touch the
// same entity.
func (o *Orchestrator) pushBatch(ctx context.Context, report *models.SyncReport, remoteOwner string, batch []models.Entity) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		halted error
	)
	sem := make(chan struct{}, o.pushConcurrency)

	for i := range batch {
		mu.Lock()
		stop := halted != nil
		mu.Unlock()
		if stop || ctx.Err() != nil {
			break
		}

		e := batch[i]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := o.pushEntity(ctx, &e, remoteOwner)
			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				report.Pushed++
				o.noteProgress(0, 1)
			case retry.Retryable(err):
				// Entity stays dirty; the phase stops here.
				if halted == nil {
					halted = err
				}
			default:
				report.Errors = append(report.Errors, models.SyncError{
					Kind:    e.Kind,
					LocalID: e.LocalID,
					Message: err.Error(),
				})
				o.logger.Warn().Err(err).
					Str("kind", string(e.Kind)).
					Str("local_id", e.LocalID).
					Msg("entity push failed")
				o.noteProgress(0, 1)
			}
		}()
	}

	wg.Wait()
	return halted
}

// pushEntity uploads one entity and atomically records the acknowledgment.
// A duplicate push converges on the canonical remote id, so retries after a
// lost acknowledgment are safe.
func (o *Orchestrator) pushEntity(ctx context.Context, e *models.Entity, remoteOwner string) error {
	rec, err := mapper.ToWire(e, remoteOwner)
	if err != nil {
		return err
	}

	var resp models.UpsertResponse
	err = o.retrier.Execute(ctx, retry.ClassUpsert, func(ctx context.Context) error {
		r, err := o.backend.Upsert(ctx, rec)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return err
	}

	if err = o.entities.MarkClean(ctx, e.LocalID, resp.RemoteID, e.UpdatedAt, o.now()); err != nil {
		return fmt.Errorf("mark clean %s: %w", e.LocalID, err)
	}
	return nil
}
