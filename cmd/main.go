package main

import (
	"buddy-chat/broadcast"
	"buddy-chat/domain/event"
	"buddy-chat/internal"
	"buddy-chat/observability"
	"buddy-chat/repositories"
	"buddy-chat/runtime"
	"buddy-chat/runtime/workers"
	"buddy-chat/session"
	"buddy-chat/transport"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Every defer (database included) runs before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Pairing journal (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath)
	if config.BadgerFilepath == "" {
		options = badger.DefaultOptions("").WithInMemory(true)
	}
	db, err := badger.Open(options.WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	journal := repositories.NewPairingRepository(db, log, config.JournalPageLimit)

	// 3. Setup Supervision & Orchestration
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := session.NewRegistry(log)
	metrics := observability.NewMetrics(log, registry)

	orchestrator := runtime.NewOrchestrator(
		log, sup, registry, runtime.NewConnections(),
		config.BufferSize, config.SinkTimeout, config.MetricInterval,
	).WithJournal(journal)
	orchestrator.Add(
		metrics,
		event.NewChannelCapacityHandler(log, config.LowCapacityThreshold),
		event.NewWorkerRestartedAfterPanicHandler(log, event.NewCounter()),
		event.NewRelayDroppedHandler(log, event.NewCounter()),
		event.NewLatencyHandler(log, config.LatencyThreshold),
	)

	// Optional lifecycle publishing (NATS)
	if config.NatsURL != "" {
		nc, err := broadcast.Connect(broadcast.Config{URL: config.NatsURL, Name: "buddy-chat"})
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Drain()
		orchestrator.Add(broadcast.NewPublisher(log, nc, config.NatsSubjectPrefix))
		log.Info("Publishing pairing lifecycle", "nats", config.NatsURL, "prefix", config.NatsSubjectPrefix)
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the Engine
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 6. HTTP & websocket server
	if config.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := transport.NewHandler(log, orchestrator, config.ConnectionBufferSize, config.MaxNameLength)
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           internal.NewRouter(log, handler.HandleWS, orchestrator, journal, metrics.Registry()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		orchestrator.Stop()
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown", "error", err)
	}
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
