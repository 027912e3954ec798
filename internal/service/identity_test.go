package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/mock"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/internal/store"
	"github.com/ashirkhanov/syncwell/models"
)

func testRetrier() *retry.Controller {
	return retry.NewController(config.EngineRetry{
		BaseDelay:        time.Millisecond,
		MaxDelay:         2 * time.Millisecond,
		MaxAttempts:      2,
		BreakerThreshold: 100,
		BreakerCooldown:  time.Minute,
	}, logger.Nop())
}

func newTestResolver(t *testing.T) (IdentityResolver, *mock.MockIdentityCache, *mock.MockBackendAdapter) {
	t.Helper()
	ctrl := gomock.NewController(t)
	cache := mock.NewMockIdentityCache(ctrl)
	backend := mock.NewMockBackendAdapter(ctrl)
	resolver := NewIdentityResolver(cache, backend, testRetrier(), logger.Nop())
	return resolver, cache, backend
}

func TestResolve_DurableCacheHit(t *testing.T) {
	resolver, cache, _ := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("srv-owner-1", nil)

	remoteID, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-1", remoteID)

	// Second call is served from the in-memory memo; no further cache or
	// backend traffic.
	remoteID, err = resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-1", remoteID)
}

func TestResolve_RemoteFind(t *testing.T) {
	resolver, cache, backend := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("", store.ErrIdentityNotCached)
	backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
		Return(models.IdentityResolveResponse{RemoteID: "srv-owner-1"}, nil)
	cache.EXPECT().Store(ctx, "owner-1", "srv-owner-1").Return(nil)

	remoteID, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-1", remoteID)
}

func TestResolve_CreateOnMiss(t *testing.T) {
	resolver, cache, backend := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("", store.ErrIdentityNotCached)
	backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
		Return(models.IdentityResolveResponse{}, adapter.ErrNotFound)
	backend.EXPECT().CreateIdentity(gomock.Any(), "ravshan").
		Return(models.IdentityResolveResponse{RemoteID: "srv-owner-1", Created: true}, nil)
	cache.EXPECT().Store(ctx, "owner-1", "srv-owner-1").Return(nil)

	remoteID, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-1", remoteID)
}

func TestResolve_CreationRaceConverges(t *testing.T) {
	resolver, cache, backend := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("", store.ErrIdentityNotCached)
	gomock.InOrder(
		backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
			Return(models.IdentityResolveResponse{}, adapter.ErrNotFound),
		backend.EXPECT().CreateIdentity(gomock.Any(), "ravshan").
			Return(models.IdentityResolveResponse{}, adapter.ErrConflict),
		backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
			Return(models.IdentityResolveResponse{RemoteID: "srv-owner-1"}, nil),
	)
	cache.EXPECT().Store(ctx, "owner-1", "srv-owner-1").Return(nil)

	remoteID, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-1", remoteID)
}

func TestResolve_ConnectivityFailurePropagates(t *testing.T) {
	resolver, cache, backend := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("", store.ErrIdentityNotCached)
	backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
		Return(models.IdentityResolveResponse{}, adapter.ErrUnreachable).
		Times(2)

	_, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrUnreachable)
	assert.True(t, retry.Retryable(err))
}

func TestInvalidate_DropsMemoAndCache(t *testing.T) {
	resolver, cache, backend := newTestResolver(t)
	ctx := context.Background()

	cache.EXPECT().Lookup(ctx, "owner-1").Return("srv-owner-1", nil)
	_, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)

	cache.EXPECT().Invalidate(ctx, "owner-1").Return(nil)
	require.NoError(t, resolver.Invalidate(ctx, "owner-1"))

	// The memo is gone, so resolution goes back to the sources.
	cache.EXPECT().Lookup(ctx, "owner-1").Return("", store.ErrIdentityNotCached)
	backend.EXPECT().FindIdentity(gomock.Any(), "ravshan").
		Return(models.IdentityResolveResponse{RemoteID: "srv-owner-2"}, nil)
	cache.EXPECT().Store(ctx, "owner-1", "srv-owner-2").Return(nil)

	remoteID, err := resolver.Resolve(ctx, "owner-1", "ravshan")
	require.NoError(t, err)
	assert.Equal(t, "srv-owner-2", remoteID)
}
