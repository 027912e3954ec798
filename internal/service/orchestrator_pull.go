// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ashirkhanov/syncwell/internal/mapper"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/models"
)

// pullPass fetches remote changes per kind since the persisted cursor and
// applies them with server-wins semantics. A row that fails to map is
// skipped and logged; rows behind it still apply, and the cursor advances to
// the greatest successfully applied updated-at so the batch is never stuck
// behind one corrupt record. A row that maps but fails to apply locally
// halts its batch instead: the cursor stays below the failed row and the
// next pull refetches it.
//
// An incremental pass pulls since the persisted cursor; a full pass
// re-fetches each collection from the beginning.
func (o *Orchestrator) pullPass(ctx context.Context, report *models.SyncReport, ownerID, remoteOwner string, full bool) error {
	for _, kind := range models.KindOrder {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := o.pullKind(ctx, report, kind, ownerID, remoteOwner, full); err != nil {
			if retry.Retryable(err) {
				// Connectivity is gone; the remaining kinds would
				// fail the same way.
				return err
			}
			report.Errors = append(report.Errors, models.SyncError{
				Kind:    kind,
				Message: err.Error(),
			})
		}
	}
	return nil
}

func (o *Orchestrator) pullKind(ctx context.Context, report *models.SyncReport, kind models.Kind, ownerID, remoteOwner string, full bool) error {
	cursor, err := o.cursors.Get(ctx, kind, ownerID)
	if err != nil {
		return fmt.Errorf("cursor for %s: %w", kind, err)
	}

	since := cursor.Since
	if full {
		since = time.Time{}
	}

	var resp models.ChangesResponse
	err = o.retrier.Execute(ctx, retry.ClassChanges, func(ctx context.Context) error {
		r, err := o.backend.Changes(ctx, kind, remoteOwner, since)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return err
	}

	if len(resp.Records) > 0 {
		o.noteProgress(len(resp.Records), 0)
	}

	var maxApplied time.Time
	for _, rec := range resp.Records {
		if ctx.Err() != nil {
			break
		}

		e, err := mapper.FromWire(rec)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, models.SyncError{
				Kind:    kind,
				LocalID: rec.ClientID,
				Message: err.Error(),
			})
			o.logger.Warn().Err(err).
				Str("kind", string(kind)).
				Str("remote_id", rec.RemoteID).
				Msg("skipping unmappable pulled record")
			o.noteProgress(0, 1)
			continue
		}

		syncedAt := o.now()
		e.LastSyncedAt = &syncedAt

		applied, err := o.entities.ApplyRemote(ctx, e, ownerID)
		if err != nil {
			// A local write failure is different from a corrupt record:
			// the row is fine and must be refetched. Stop the batch here
			// so the cursor cannot move past the unapplied row.
			report.Errors = append(report.Errors, models.SyncError{
				Kind:    kind,
				LocalID: rec.ClientID,
				Message: err.Error(),
			})
			o.logger.Error().Err(err).
				Str("kind", string(kind)).
				Str("remote_id", rec.RemoteID).
				Msg("halting pull batch on local apply failure")
			break
		}

		if applied {
			report.Pulled++
		} else {
			report.Skipped++
		}
		o.noteProgress(0, 1)
		if rec.UpdatedAt.After(maxApplied) {
			maxApplied = rec.UpdatedAt
		}
	}

	if !maxApplied.IsZero() {
		if err = o.cursors.Advance(ctx, kind, ownerID, maxApplied); err != nil {
			return fmt.Errorf("advance cursor for %s: %w", kind, err)
		}
	}
	return nil
}
