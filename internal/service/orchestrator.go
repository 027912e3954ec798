// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/queue"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/internal/store"
	"github.com/ashirkhanov/syncwell/internal/utils"
	"github.com/ashirkhanov/syncwell/internal/validators"
	"github.com/ashirkhanov/syncwell/models"
)

// Orchestrator drives sync passes: push of locally dirty entities, pull of
// remote changes since the persisted cursors, and replay of the offline
// operation queue. At most one pass runs at a time; triggers arriving during
// a pass coalesce into a single follow-up.
type Orchestrator struct {
	entities store.EntityRepository
	cursors  store.CursorRepository
	backend  adapter.BackendAdapter
	resolver IdentityResolver
	ops      *queue.Queue
	retrier  *retry.Controller
	pub      *Publisher
	validate validators.Validator
	ids      *utils.UUIDGenerator
	logger   *logger.Logger

	pushConcurrency int
	now             func() time.Time

	mu         sync.Mutex
	state      models.SyncState
	running    bool
	requested  bool
	ownerID    string
	handle     string
	lastReport *models.SyncReport
	lastSyncAt *time.Time
	passTotal  int
	passDone   int

	wg sync.WaitGroup
}

func NewOrchestrator(
	storages *store.Storages,
	backend adapter.BackendAdapter,
	resolver IdentityResolver,
	ops *queue.Queue,
	retrier *retry.Controller,
	pub *Publisher,
	cfg config.EngineWorkers,
	log *logger.Logger,
) *Orchestrator {
	concurrency := cfg.PushConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Orchestrator{
		entities:        storages.Entities,
		cursors:         storages.Cursors,
		backend:         backend,
		resolver:        resolver,
		ops:             ops,
		retrier:         retrier,
		pub:             pub,
		validate:        validators.NewEntityValidator(),
		ids:             utils.NewUUIDGenerator(),
		logger:          log,
		pushConcurrency: concurrency,
		now:             time.Now,
		state:           models.SyncIdle,
	}
}

// SetOwner fixes the local principal whose entities this engine syncs.
// handle is the stable natural key used for remote identity resolution.
func (o *Orchestrator) SetOwner(ownerID, handle string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ownerID = ownerID
	o.handle = handle
}

// OnAuthenticated installs a fresh bearer token and starts an incremental
// pass. When no handle has been set yet, the token's claims supply it.
func (o *Orchestrator) OnAuthenticated(ctx context.Context, token string) error {
	o.backend.SetToken(token)

	claims, err := o.backend.SessionClaims()
	if err != nil {
		return fmt.Errorf("session claims: %w", err)
	}

	o.mu.Lock()
	if o.handle == "" {
		o.handle = claims.Handle
	}
	o.mu.Unlock()

	o.TriggerIncrementalSync(ctx)
	return nil
}

// OnSignOut invalidates the cached identity and drops the bearer token.
func (o *Orchestrator) OnSignOut(ctx context.Context) error {
	o.backend.SetToken("")

	o.mu.Lock()
	ownerID := o.ownerID
	o.mu.Unlock()

	if ownerID == "" {
		return nil
	}
	return o.resolver.Invalidate(ctx, ownerID)
}

// OnForeground requests an incremental pass; called when the host
// application returns to the foreground.
func (o *Orchestrator) OnForeground(ctx context.Context) {
	o.TriggerIncrementalSync(ctx)
}

// OnConnectivityRestored drains the offline queue, then runs an incremental
// pass. Called by the connectivity worker on an offline-to-online flip.
func (o *Orchestrator) OnConnectivityRestored(ctx context.Context) {
	if applied, err := o.ops.Drain(ctx, o.applyQueuedOp); err != nil {
		o.logger.Warn().Err(err).Int("applied", applied).Msg("offline queue drain interrupted")
	} else if applied > 0 {
		o.logger.Info().Int("applied", applied).Msg("offline queue drained")
	}
	o.TriggerIncrementalSync(ctx)
}

// SaveLocal persists a local mutation, records it in the offline queue, and
// requests sync. A new entity without a LocalID gets one assigned here.
// The entity becomes dirty regardless of connectivity; the
// queue guarantees replay even if the process dies before the next pass.
func (o *Orchestrator) SaveLocal(ctx context.Context, e *models.Entity) error {
	if e.LocalID == "" {
		e.LocalID = o.ids.Generate()
	}
	if err := o.validate.Validate(ctx, e); err != nil {
		return fmt.Errorf("save local: %w", err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = o.now()
	}
	e.NeedsSync = true

	if err := o.entities.Save(ctx, e); err != nil {
		return fmt.Errorf("save local: %w", err)
	}
	if _, err := o.ops.Enqueue(ctx, e.LocalID, e.OwnerID, e.Kind, models.OpUpsert); err != nil {
		return fmt.Errorf("save local: %w", err)
	}

	o.TriggerIncrementalSync(ctx)
	return nil
}

// DeleteLocal tombstones an entity and queues the deletion for propagation.
func (o *Orchestrator) DeleteLocal(ctx context.Context, localID string) error {
	e, err := o.entities.Get(ctx, localID)
	if err != nil {
		return fmt.Errorf("delete local: %w", err)
	}

	if err = o.entities.MarkDeleted(ctx, localID, o.now()); err != nil {
		return fmt.Errorf("delete local: %w", err)
	}
	if _, err = o.ops.Enqueue(ctx, localID, e.OwnerID, e.Kind, models.OpDelete); err != nil {
		return fmt.Errorf("delete local: %w", err)
	}

	o.TriggerIncrementalSync(ctx)
	return nil
}

// TriggerFullSync requests a full pass. Returns false when a pass was
// already running, in which case a follow-up has been scheduled instead.
func (o *Orchestrator) TriggerFullSync(ctx context.Context) bool {
	return o.trigger(ctx, true)
}

// TriggerIncrementalSync requests an incremental pass, coalescing with any
// pass already in flight.
func (o *Orchestrator) TriggerIncrementalSync(ctx context.Context) bool {
	return o.trigger(ctx, false)
}

func (o *Orchestrator) trigger(ctx context.Context, full bool) bool {
	o.mu.Lock()
	if o.running {
		o.requested = true
		o.mu.Unlock()
		return false
	}
	o.running = true
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runLoop(ctx, full)
	}()
	return true
}

// Wait blocks until any in-flight background pass has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) runLoop(ctx context.Context, full bool) {
	for {
		if _, err := o.runPass(ctx, full); err != nil {
			o.logger.Warn().Err(err).Msg("sync pass failed")
		}

		o.mu.Lock()
		if !o.requested || ctx.Err() != nil {
			o.running = false
			o.mu.Unlock()
			return
		}
		o.requested = false
		o.mu.Unlock()

		// Coalesced follow-ups are incremental; a full pass must be
		// requested explicitly.
		full = false
	}
}

// RunFullSync implements Syncer. It executes a pass in the calling
// goroutine; if a background pass is already running it schedules a
// follow-up and returns ErrSyncRunning.
func (o *Orchestrator) RunFullSync(ctx context.Context) (models.SyncReport, error) {
	return o.run(ctx, true)
}

// RunIncrementalSync implements Syncer.
func (o *Orchestrator) RunIncrementalSync(ctx context.Context) (models.SyncReport, error) {
	return o.run(ctx, false)
}

func (o *Orchestrator) run(ctx context.Context, full bool) (models.SyncReport, error) {
	o.mu.Lock()
	if o.running {
		o.requested = true
		o.mu.Unlock()
		return models.SyncReport{}, ErrSyncRunning
	}
	o.running = true
	o.mu.Unlock()

	report, err := o.runPass(ctx, full)

	o.mu.Lock()
	o.running = false
	again := o.requested
	o.requested = false
	o.mu.Unlock()

	if again {
		o.trigger(ctx, false)
	}
	return report, err
}

// Status returns the current observable engine state.
func (o *Orchestrator) Status() models.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

func (o *Orchestrator) statusLocked() models.SyncStatus {
	status := models.SyncStatus{
		State:        o.state,
		IsSyncing:    o.state == models.SyncRunning,
		LastSyncDate: o.lastSyncAt,
	}
	switch {
	case o.state != models.SyncRunning:
		status.Progress = 1
	case o.passTotal == 0:
		status.Progress = 0
	default:
		status.Progress = float64(o.passDone) / float64(o.passTotal)
	}
	if o.lastReport != nil {
		status.Errors = o.lastReport.Errors
	}
	return status
}

// LastReport returns the outcome of the most recent completed pass, or nil
// when no pass has run yet.
func (o *Orchestrator) LastReport() *models.SyncReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastReport == nil {
		return nil
	}
	report := *o.lastReport
	return &report
}

func (o *Orchestrator) runPass(ctx context.Context, full bool) (models.SyncReport, error) {
	report := models.SyncReport{Full: full, StartedAt: o.now()}

	o.mu.Lock()
	ownerID, handle := o.ownerID, o.handle
	o.state = models.SyncRunning
	o.passTotal, o.passDone = 0, 0
	o.pub.Publish(o.statusLocked())
	o.mu.Unlock()

	err := o.executePass(ctx, &report, ownerID, handle, full)
	report.FinishedAt = o.now()

	o.mu.Lock()
	if err != nil || report.Failed() {
		o.state = models.SyncDegraded
	} else {
		o.state = models.SyncIdle
		at := report.FinishedAt
		o.lastSyncAt = &at
	}
	o.lastReport = &report
	o.pub.Publish(o.statusLocked())
	o.mu.Unlock()

	o.logger.Info().
		Bool("full", full).
		Int("pushed", report.Pushed).
		Int("pulled", report.Pulled).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Msg("sync pass finished")
	return report, err
}

func (o *Orchestrator) executePass(ctx context.Context, report *models.SyncReport, ownerID, handle string, full bool) error {
	if ownerID == "" {
		return ErrOwnerUnknown
	}
	if o.backend.Token() == "" {
		return ErrNotAuthenticated
	}

	remoteOwner, err := o.resolver.Resolve(ctx, ownerID, handle)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	// A push halt must not prevent the pull from running; remote changes
	// are still worth applying when uploads are failing.
	pushErr := o.pushPass(ctx, report, ownerID, remoteOwner)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	pullErr := o.pullPass(ctx, report, ownerID, remoteOwner, full)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return errors.Join(pushErr, pullErr)
}

// noteProgress widens the pass's known workload by total items and records
// done completed ones, then publishes the updated status so subscribers see
// the pass advance.
func (o *Orchestrator) noteProgress(total, done int) {
	o.mu.Lock()
	o.passTotal += total
	o.passDone += done
	o.pub.Publish(o.statusLocked())
	o.mu.Unlock()
}

// applyQueuedOp replays one offline operation by pushing the entity's
// current state. Both upserts and deletes travel the same path: a tombstone
// pushes as a deletion record.
func (o *Orchestrator) applyQueuedOp(ctx context.Context, op models.QueuedOp) error {
	e, err := o.entities.Get(ctx, op.LocalID)
	if err != nil {
		return err
	}
	if !e.NeedsSync {
		// Already settled by an earlier pass.
		return nil
	}

	o.mu.Lock()
	handle := o.handle
	o.mu.Unlock()

	remoteOwner, err := o.resolver.Resolve(ctx, e.OwnerID, handle)
	if err != nil {
		return err
	}
	return o.pushEntity(ctx, &e, remoteOwner)
}
