package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashirkhanov/syncwell/internal/devserver"
	"github.com/ashirkhanov/syncwell/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	addr := flag.String("a", "localhost:8080", "Net address host:port")
	secret := flag.String("secret", "", "HMAC secret used to sign dev bearer tokens")
	flag.Parse()

	log := logger.NewLogger("syncwell-devserver")

	signingKey := *secret
	if signingKey == "" {
		signingKey = os.Getenv("DEVSERVER_SECRET")
	}
	if signingKey == "" {
		signingKey = "syncwell-dev"
		log.Warn().Msg("no signing secret configured, using the built-in development secret")
	}

	srv := devserver.NewServer([]byte(signingKey), log)
	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("HTTP server Shutdown")
		}
	}()

	log.Info().Str("addr", *addr).Msg("launching dev backend")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server ListenAndServe")
	}
	log.Info().Msg("server Shutdown gracefully")
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
