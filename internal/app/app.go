// Package app runs the HTTP API until the process is told to stop.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/zhl16/internal/controllers/restserver"
	"github.com/chrissnell/zhl16/internal/log"
	"github.com/chrissnell/zhl16/internal/storage"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	serverConfig restserver.Config
	store        storage.TimelineStore
	logger       *zap.SugaredLogger
}

// New creates a new application instance. store may be nil.
func New(serverConfig restserver.Config, store storage.TimelineStore, logger *zap.SugaredLogger) *App {
	return &App{
		serverConfig: serverConfig,
		store:        store,
		logger:       logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl, err := restserver.NewController(ctx, &wg, a.serverConfig, a.store, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warnf("failed to close store: %v", err)
		}
	}
	log.Info("shutdown complete")

	return nil
}
