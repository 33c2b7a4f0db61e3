package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itx-nasir/phish-guard/internal/adapters/upload"
	"github.com/itx-nasir/phish-guard/internal/di"
	"github.com/itx-nasir/phish-guard/internal/ports"
	"github.com/itx-nasir/phish-guard/internal/server"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	srv *server.Server,
	dispatcher ports.Dispatcher,
	history ports.HistoryRepository,
	uploads *upload.Store,
) error {
	defer logger.Sync()

	// Start the server
	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first so no new work arrives
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop server", zap.Error(err))
	}

	// Drain in-flight analyses before closing their sinks
	dispatcher.Stop()
	uploads.Stop()

	if err := history.Close(); err != nil {
		logger.Error("Failed to close history repository", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
