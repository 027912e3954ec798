package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/mock"
	"github.com/ashirkhanov/syncwell/internal/queue"
	"github.com/ashirkhanov/syncwell/internal/store"
	"github.com/ashirkhanov/syncwell/internal/validators"
	"github.com/ashirkhanov/syncwell/models"
)

type orchestratorFixture struct {
	orch     *Orchestrator
	entities *mock.MockEntityRepository
	cursors  *mock.MockCursorRepository
	opsRepo  *mock.MockQueueRepository
	backend  *mock.MockBackendAdapter
	resolver *mock.MockIdentityResolver
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	fix := &orchestratorFixture{
		entities: mock.NewMockEntityRepository(ctrl),
		cursors:  mock.NewMockCursorRepository(ctrl),
		opsRepo:  mock.NewMockQueueRepository(ctrl),
		backend:  mock.NewMockBackendAdapter(ctrl),
		resolver: mock.NewMockIdentityResolver(ctrl),
	}

	storages := &store.Storages{
		Entities: fix.entities,
		Cursors:  fix.cursors,
		Queue:    fix.opsRepo,
	}
	pub := NewPublisher()
	t.Cleanup(pub.Close)

	fix.orch = NewOrchestrator(
		storages,
		fix.backend,
		fix.resolver,
		queue.NewQueue(fix.opsRepo, logger.Nop()),
		testRetrier(),
		pub,
		config.EngineWorkers{PushConcurrency: 2},
		logger.Nop(),
	)
	return fix
}

func dirtyMeal(localID string, at time.Time) models.Entity {
	return models.Entity{
		LocalID:   localID,
		OwnerID:   "owner-1",
		Kind:      models.KindMeal,
		Payload:   json.RawMessage(`{"name":"oatmeal","calories":320,"eaten_at":"2026-08-30T08:00:00Z"}`),
		NeedsSync: true,
		UpdatedAt: at,
	}
}

func mealWire(remoteID, clientID string, at time.Time) models.WireRecord {
	return models.WireRecord{
		RemoteID:      remoteID,
		ClientID:      clientID,
		OwnerRemoteID: "srv-owner",
		Kind:          models.KindMeal,
		Payload:       json.RawMessage(`{"name":"lunch","calories":500,"eaten_at":"2026-08-30T12:00:00Z"}`),
		UpdatedAt:     at,
	}
}

func (f *orchestratorFixture) expectAuthenticated() {
	f.orch.SetOwner("owner-1", "ravshan")
	f.backend.EXPECT().Token().Return("token").AnyTimes()
}

func (f *orchestratorFixture) expectNoDirty() {
	f.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", gomock.Any()).Return(nil, nil).AnyTimes()
}

func (f *orchestratorFixture) expectEmptyPull() {
	f.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		DoAndReturn(func(_ context.Context, kind models.Kind, ownerID string) (models.Cursor, error) {
			return models.Cursor{Kind: kind, OwnerID: ownerID}, nil
		}).AnyTimes()
	f.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		Return(models.ChangesResponse{}, nil).AnyTimes()
}

func TestRunFullSync_PushesDirtyEntity(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)

	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindProfile).Return(nil, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindMeal).
		Return([]models.Entity{dirtyMeal("meal-1", now)}, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindReading).Return(nil, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindScan).Return(nil, nil)

	fix.backend.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.WireRecord) (models.UpsertResponse, error) {
			assert.Equal(t, "meal-1", rec.ClientID)
			assert.Equal(t, "srv-owner", rec.OwnerRemoteID)
			assert.Equal(t, models.KindMeal, rec.Kind)
			return models.UpsertResponse{RemoteID: "srv-m1", UpdatedAt: now}, nil
		})
	fix.entities.EXPECT().MarkClean(gomock.Any(), "meal-1", "srv-m1", now, gomock.Any()).Return(nil)

	fix.expectEmptyPull()

	report, err := fix.orch.RunFullSync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Full)
	assert.Equal(t, 1, report.Pushed)
	assert.Empty(t, report.Errors)

	status := fix.orch.Status()
	assert.Equal(t, models.SyncIdle, status.State)
	assert.False(t, status.IsSyncing)
	assert.NotNil(t, status.LastSyncDate)
}

func TestRunSync_RequiresOwner(t *testing.T) {
	fix := newOrchestratorFixture(t)

	_, err := fix.orch.RunIncrementalSync(context.Background())
	assert.ErrorIs(t, err, ErrOwnerUnknown)
	assert.Equal(t, models.SyncDegraded, fix.orch.Status().State)
}

func TestRunSync_RequiresToken(t *testing.T) {
	fix := newOrchestratorFixture(t)
	fix.orch.SetOwner("owner-1", "ravshan")
	fix.backend.EXPECT().Token().Return("")

	_, err := fix.orch.RunIncrementalSync(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestPush_TerminalFailureDoesNotBlockOthers(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)

	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindProfile).Return(nil, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindMeal).
		Return([]models.Entity{dirtyMeal("meal-bad", now), dirtyMeal("meal-good", now.Add(time.Second))}, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindReading).Return(nil, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindScan).Return(nil, nil)

	fix.backend.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.WireRecord) (models.UpsertResponse, error) {
			if rec.ClientID == "meal-bad" {
				return models.UpsertResponse{}, adapter.ErrInvalidPayload
			}
			return models.UpsertResponse{RemoteID: "srv-good"}, nil
		}).Times(2)
	fix.entities.EXPECT().MarkClean(gomock.Any(), "meal-good", "srv-good", gomock.Any(), gomock.Any()).Return(nil)

	fix.expectEmptyPull()

	report, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pushed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "meal-bad", report.Errors[0].LocalID)
	assert.Equal(t, models.SyncDegraded, fix.orch.Status().State)
}

func TestPush_RetryableHaltsPushButPullStillRuns(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)

	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindProfile).Return(nil, nil)
	fix.entities.EXPECT().GetDirty(gomock.Any(), "owner-1", models.KindMeal).
		Return([]models.Entity{dirtyMeal("meal-1", now)}, nil)

	fix.backend.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(models.UpsertResponse{}, adapter.ErrUnreachable).
		Times(2)

	pulled := atomic.Int32{}
	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		Return(models.Cursor{}, nil).AnyTimes()
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		DoAndReturn(func(context.Context, models.Kind, string, time.Time) (models.ChangesResponse, error) {
			pulled.Add(1)
			return models.ChangesResponse{}, nil
		}).Times(4)

	_, err := fix.orch.RunIncrementalSync(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrUnreachable)
	assert.Equal(t, int32(4), pulled.Load(), "pull must run even when push halts")
	assert.Equal(t, models.SyncDegraded, fix.orch.Status().State)
}

func TestPull_CorruptMiddleRowIsSkippedAndCursorAdvances(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)
	fix.expectNoDirty()

	corrupt := mealWire("srv-m2", "m2", base.Add(time.Minute))
	corrupt.Payload = json.RawMessage(`{"name":"bad","calories":"not-a-number"}`)
	records := []models.WireRecord{
		mealWire("srv-m1", "m1", base),
		corrupt,
		mealWire("srv-m3", "m3", base.Add(2*time.Minute)),
	}

	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		Return(models.Cursor{}, nil).Times(4)
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, kind models.Kind, _ string, _ time.Time) (models.ChangesResponse, error) {
			if kind == models.KindMeal {
				return models.ChangesResponse{Records: records}, nil
			}
			return models.ChangesResponse{}, nil
		}).Times(4)

	fix.entities.EXPECT().ApplyRemote(gomock.Any(), gomock.Any(), "owner-1").Return(true, nil).Times(2)
	fix.cursors.EXPECT().Advance(gomock.Any(), models.KindMeal, "owner-1", records[2].UpdatedAt).Return(nil)

	report, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pulled)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "m2", report.Errors[0].LocalID)
}

func TestPull_ApplyFailureHaltsBatchAndCapsCursor(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)
	fix.expectNoDirty()

	records := []models.WireRecord{
		mealWire("srv-m1", "m1", base),
		mealWire("srv-m2", "m2", base.Add(time.Minute)),
		mealWire("srv-m3", "m3", base.Add(2*time.Minute)),
	}

	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		Return(models.Cursor{}, nil).Times(4)
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, kind models.Kind, _ string, _ time.Time) (models.ChangesResponse, error) {
			if kind == models.KindMeal {
				return models.ChangesResponse{Records: records}, nil
			}
			return models.ChangesResponse{}, nil
		}).Times(4)

	// The second row fails to write locally; the row behind it must not be
	// applied and the cursor must stay below the failed row so the next
	// pull refetches it.
	fix.entities.EXPECT().ApplyRemote(gomock.Any(), gomock.Any(), "owner-1").
		DoAndReturn(func(_ context.Context, e models.Entity, _ string) (bool, error) {
			if e.LocalID == "m2" {
				return false, fmt.Errorf("%w: apply m2: database is locked", store.ErrExecutingStatement)
			}
			assert.NotEqual(t, "m3", e.LocalID)
			return true, nil
		}).Times(2)
	fix.cursors.EXPECT().Advance(gomock.Any(), models.KindMeal, "owner-1", records[0].UpdatedAt).Return(nil)

	report, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pulled)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "m2", report.Errors[0].LocalID)
}

func TestPull_SuppressedTombstoneStillAdvancesCursor(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)
	fix.expectNoDirty()

	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		Return(models.Cursor{}, nil).Times(4)
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, kind models.Kind, _ string, _ time.Time) (models.ChangesResponse, error) {
			if kind == models.KindMeal {
				return models.ChangesResponse{Records: []models.WireRecord{mealWire("srv-m1", "m1", at)}}, nil
			}
			return models.ChangesResponse{}, nil
		}).Times(4)

	fix.entities.EXPECT().ApplyRemote(gomock.Any(), gomock.Any(), "owner-1").Return(false, nil)
	fix.cursors.EXPECT().Advance(gomock.Any(), models.KindMeal, "owner-1", at).Return(nil)

	report, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Pulled)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
}

func TestPull_FullPassIgnoresCursor(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	mark := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil).Times(2)
	fix.expectNoDirty()

	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		DoAndReturn(func(_ context.Context, kind models.Kind, ownerID string) (models.Cursor, error) {
			return models.Cursor{Kind: kind, OwnerID: ownerID, Since: mark}, nil
		}).AnyTimes()

	// Incremental pulls since the persisted cursor.
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", mark).
		Return(models.ChangesResponse{}, nil).Times(4)
	_, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)

	// A full pass re-fetches everything from the beginning.
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", time.Time{}).
		Return(models.ChangesResponse{}, nil).Times(4)
	_, err = fix.orch.RunFullSync(ctx)
	require.NoError(t, err)
}

func TestStatus_ProgressAdvancesThroughPass(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil)
	fix.expectNoDirty()

	records := []models.WireRecord{
		mealWire("srv-m1", "m1", base),
		mealWire("srv-m2", "m2", base.Add(time.Minute)),
	}
	fix.cursors.EXPECT().Get(gomock.Any(), gomock.Any(), "owner-1").
		Return(models.Cursor{}, nil).Times(4)
	fix.backend.EXPECT().Changes(gomock.Any(), gomock.Any(), "srv-owner", gomock.Any()).
		DoAndReturn(func(_ context.Context, kind models.Kind, _ string, _ time.Time) (models.ChangesResponse, error) {
			if kind == models.KindMeal {
				return models.ChangesResponse{Records: records}, nil
			}
			return models.ChangesResponse{}, nil
		}).Times(4)

	// Records are applied one at a time, so the progress observed from
	// inside each apply is the fraction completed before it: 0 of 2, then
	// 1 of 2.
	var observed []float64
	fix.entities.EXPECT().ApplyRemote(gomock.Any(), gomock.Any(), "owner-1").
		DoAndReturn(func(context.Context, models.Entity, string) (bool, error) {
			observed = append(observed, fix.orch.Status().Progress)
			return true, nil
		}).Times(2)
	fix.cursors.EXPECT().Advance(gomock.Any(), models.KindMeal, "owner-1", records[1].UpdatedAt).Return(nil)

	_, err := fix.orch.RunIncrementalSync(ctx)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5}, observed)
	assert.Equal(t, float64(1), fix.orch.Status().Progress)
}

func TestTrigger_CoalescesConcurrentRequests(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()

	fix.expectAuthenticated()
	fix.expectNoDirty()
	fix.expectEmptyPull()

	release := make(chan struct{})
	var passes atomic.Int32
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").
		DoAndReturn(func(context.Context, string, string) (string, error) {
			passes.Add(1)
			<-release
			return "srv-owner", nil
		}).AnyTimes()

	require.True(t, fix.orch.TriggerFullSync(ctx))
	require.Eventually(t, func() bool { return passes.Load() == 1 }, 2*time.Second, time.Millisecond)

	// A pass is in flight: further triggers coalesce into one follow-up,
	// and the synchronous runner refuses to start.
	assert.False(t, fix.orch.TriggerIncrementalSync(ctx))
	assert.False(t, fix.orch.TriggerFullSync(ctx))
	assert.False(t, fix.orch.TriggerIncrementalSync(ctx))
	_, err := fix.orch.RunIncrementalSync(ctx)
	assert.ErrorIs(t, err, ErrSyncRunning)

	close(release)
	fix.orch.Wait()

	assert.Equal(t, int32(2), passes.Load(), "many triggers must coalesce into one follow-up pass")
}

func TestSaveLocal_PersistsEnqueuesAndTriggers(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()

	entity := dirtyMeal("meal-1", time.Time{})
	entity.NeedsSync = false

	fix.entities.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.Entity) error {
			assert.True(t, e.NeedsSync)
			assert.False(t, e.UpdatedAt.IsZero())
			return nil
		})
	fix.opsRepo.EXPECT().Tail(gomock.Any(), "meal-1").Return(models.QueuedOp{}, store.ErrQueueEmpty)
	fix.opsRepo.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.QueuedOp) (models.QueuedOp, error) {
			assert.Equal(t, models.OpUpsert, op.Op)
			op.Seq = 1
			return op, nil
		})

	// No owner is set, so the triggered background pass stops before it
	// touches any other collaborator.
	require.NoError(t, fix.orch.SaveLocal(ctx, &entity))
	fix.orch.Wait()
}

func TestSaveLocal_AssignsLocalIDToNewEntity(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()

	entity := dirtyMeal("", time.Time{})

	fix.entities.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *models.Entity) error {
			assert.NotEmpty(t, e.LocalID)
			return nil
		})
	fix.opsRepo.EXPECT().Tail(gomock.Any(), gomock.Any()).Return(models.QueuedOp{}, store.ErrQueueEmpty)
	fix.opsRepo.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.QueuedOp) (models.QueuedOp, error) {
			assert.NotEmpty(t, op.LocalID)
			op.Seq = 1
			return op, nil
		})

	require.NoError(t, fix.orch.SaveLocal(ctx, &entity))
	assert.NotEmpty(t, entity.LocalID)
	fix.orch.Wait()
}

func TestSaveLocal_RejectsMalformedEntity(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()

	entity := dirtyMeal("meal-1", time.Time{})
	entity.Kind = models.Kind("workout")

	// No Save or Append expectation: a rejected entity never reaches the
	// store or the queue.
	err := fix.orch.SaveLocal(ctx, &entity)

	require.ErrorIs(t, err, validators.ErrInvalidKind)
	fix.orch.Wait()
}

func TestDeleteLocal_TombstonesAndEnqueues(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.entities.EXPECT().Get(gomock.Any(), "meal-1").Return(dirtyMeal("meal-1", now), nil)
	fix.entities.EXPECT().MarkDeleted(gomock.Any(), "meal-1", gomock.Any()).Return(nil)
	fix.opsRepo.EXPECT().Tail(gomock.Any(), "meal-1").Return(models.QueuedOp{}, store.ErrQueueEmpty)
	fix.opsRepo.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op models.QueuedOp) (models.QueuedOp, error) {
			assert.Equal(t, models.OpDelete, op.Op)
			op.Seq = 1
			return op, nil
		})

	require.NoError(t, fix.orch.DeleteLocal(ctx, "meal-1"))
	fix.orch.Wait()
}

func TestOnConnectivityRestored_DrainsQueueThenSyncs(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	fix.expectAuthenticated()
	fix.resolver.EXPECT().Resolve(gomock.Any(), "owner-1", "ravshan").Return("srv-owner", nil).AnyTimes()

	// One operation waiting in the offline queue.
	fix.opsRepo.EXPECT().List(gomock.Any(), 0).
		Return([]models.QueuedOp{{Seq: 1, LocalID: "meal-1", OwnerID: "owner-1", Kind: models.KindMeal, Op: models.OpUpsert}}, nil)
	fix.entities.EXPECT().Get(gomock.Any(), "meal-1").Return(dirtyMeal("meal-1", now), nil)
	fix.backend.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		Return(models.UpsertResponse{RemoteID: "srv-m1"}, nil)
	fix.entities.EXPECT().MarkClean(gomock.Any(), "meal-1", "srv-m1", gomock.Any(), gomock.Any()).Return(nil)
	fix.opsRepo.EXPECT().Remove(gomock.Any(), int64(1)).Return(nil)

	// The follow-up incremental pass.
	fix.expectNoDirty()
	fix.expectEmptyPull()

	fix.orch.OnConnectivityRestored(ctx)
	fix.orch.Wait()

	report := fix.orch.LastReport()
	require.NotNil(t, report)
	assert.False(t, report.Full)
}

func TestOnSignOut_InvalidatesIdentity(t *testing.T) {
	fix := newOrchestratorFixture(t)
	ctx := context.Background()

	fix.orch.SetOwner("owner-1", "ravshan")
	fix.backend.EXPECT().SetToken("")
	fix.resolver.EXPECT().Invalidate(ctx, "owner-1").Return(nil)

	require.NoError(t, fix.orch.OnSignOut(ctx))
}
