package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ashirkhanov/syncwell/internal/adapter"
	"github.com/ashirkhanov/syncwell/internal/config"
	"github.com/ashirkhanov/syncwell/internal/logger"
	"github.com/ashirkhanov/syncwell/internal/netmon"
	"github.com/ashirkhanov/syncwell/internal/service"
	"github.com/ashirkhanov/syncwell/internal/store"
	"github.com/ashirkhanov/syncwell/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("syncwell-engine")
	cfg, err := config.GetEngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	backend, err := adapter.NewHTTPBackendAdapter(cfg.Backend, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create backend adapter")
	}

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	services := service.NewServices(storages, backend, cfg, log)

	statusCh, cancelStatus := services.Publisher.Subscribe()
	go func() {
		for status := range statusCh {
			log.Info().
				Str("state", string(status.State)).
				Bool("syncing", status.IsSyncing).
				Msg("sync status")
		}
	}()

	monitor := netmon.NewMonitor(backend, cfg.Monitor, log)
	pool := workers.NewWorkers(
		workers.NewConnectivityWorker(monitor, services.Orchestrator, log),
		workers.NewSyncJobWorker(services.SyncJob, cfg.Workers.SyncInterval),
	)
	pool.Run(ctx)

	// A token supplied via config signs the session in right away. Without
	// one the engine idles offline until the host application authenticates.
	if cfg.Backend.Token != "" {
		claims, claimsErr := backend.SessionClaims()
		if claimsErr != nil {
			log.Fatal().Err(claimsErr).Msg("configured token is not usable")
		}
		services.Orchestrator.SetOwner(claims.Handle, claims.Handle)
		if err = services.Orchestrator.OnAuthenticated(ctx, cfg.Backend.Token); err != nil {
			log.Fatal().Err(err).Msg("sign-in with configured token")
		}
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	pool.Stop()
	services.Orchestrator.Wait()
	cancelStatus()
	services.Publisher.Close()

	if err = storages.Close(); err != nil {
		log.Err(err).Msg("closing local storage")
	}
	log.Info().Msg("engine stopped gracefully")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
