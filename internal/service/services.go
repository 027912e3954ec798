// SPDX-License-Identifier: Apache-2.0

package service

import (
	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/queue"
	"github.com/ashirkhanov/syncwell/internal/retry"
	"github.com/ashirkhanov/syncwell/internal/store"
)

// Services wires the coordination layer together.
type Services struct {
	Resolver     IdentityResolver
	Orchestrator *Orchestrator
	SyncJob      SyncJob
	Publisher    *Publisher
}

func NewServices(storages *store.Storages, backend adapter.BackendAdapter, cfg *config.EngineConfig, log *logger.Logger) *Services {
	retrier := retry.NewController(cfg.Retry, log)
	resolver := NewIdentityResolver(storages.Identities, backend, retrier, log)
	ops := queue.NewQueue(storages.Queue, log)
	pub := NewPublisher()

	orchestrator := NewOrchestrator(storages, backend, resolver, ops, retrier, pub, cfg.Workers, log)

	return &Services{
		Resolver:     resolver,
		Orchestrator: orchestrator,
		SyncJob:      NewSyncJob(orchestrator, log),
		Publisher:    pub,
	}
}
