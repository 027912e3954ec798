// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/internal/store"
)

type identityResolver struct {
	cache   store.IdentityCache
	backend adapter.BackendAdapter
	retrier *retry.Controller
	logger  *logger.Logger

	mu   sync.Mutex
	memo map[string]string
}

func NewIdentityResolver(cache store.IdentityCache, backend adapter.BackendAdapter, retrier *retry.Controller, log *logger.Logger) IdentityResolver {
	return &identityResolver{
		cache:   cache,
		backend: backend,
		retrier: retrier,
		logger:  log,
		memo:    make(map[string]string),
	}
}

// Resolve implements IdentityResolver. Lookup order: in-memory memo, durable
// cache, then the backend. A remote miss triggers a create; a conflict on
// create means another device won the race, so the record is re-fetched.
func (r *identityResolver) Resolve(ctx context.Context, ownerID, handle string) (string, error) {
	r.mu.Lock()
	if remoteID, ok := r.memo[ownerID]; ok {
		r.mu.Unlock()
		return remoteID, nil
	}
	r.mu.Unlock()

	remoteID, err := r.cache.Lookup(ctx, ownerID)
	if err == nil {
		r.remember(ownerID, remoteID)
		return remoteID, nil
	}
	if !errors.Is(err, store.ErrIdentityNotCached) {
		return "", fmt.Errorf("identity cache lookup: %w", err)
	}

	remoteID, err = r.resolveRemote(ctx, handle)
	if err != nil {
		return "", err
	}

	if err = r.cache.Store(ctx, ownerID, remoteID); err != nil {
		return "", fmt.Errorf("identity cache store: %w", err)
	}
	r.remember(ownerID, remoteID)

	r.logger.Info().
		Str("owner_id", ownerID).
		Str("remote_id", remoteID).
		Msg("owner identity resolved")
	return remoteID, nil
}

func (r *identityResolver) resolveRemote(ctx context.Context, handle string) (string, error) {
	var remoteID string

	err := r.retrier.Execute(ctx, retry.ClassIdentity, func(ctx context.Context) error {
		resp, err := r.backend.FindIdentity(ctx, handle)
		if err == nil {
			remoteID = resp.RemoteID
			return nil
		}
		if !errors.Is(err, adapter.ErrNotFound) {
			return err
		}

		resp, err = r.backend.CreateIdentity(ctx, handle)
		if err == nil {
			remoteID = resp.RemoteID
			return nil
		}
		if !errors.Is(err, adapter.ErrConflict) {
			return err
		}

		// Lost the creation race; the record now exists.
		resp, err = r.backend.FindIdentity(ctx, handle)
		if err != nil {
			return err
		}
		remoteID = resp.RemoteID
		return nil
	})
	if err != nil {
		return "", err
	}
	return remoteID, nil
}

func (r *identityResolver) Invalidate(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	delete(r.memo, ownerID)
	r.mu.Unlock()

	if err := r.cache.Invalidate(ctx, ownerID); err != nil {
		return fmt.Errorf("identity cache invalidate: %w", err)
	}
	return nil
}

func (r *identityResolver) remember(ownerID, remoteID string) {
	r.mu.Lock()
	r.memo[ownerID] = remoteID
	r.mu.Unlock()
}
