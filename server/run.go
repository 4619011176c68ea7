package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/existflow/projectdraft/internal/config"
	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run opens the configured store and serves the API until ctx is cancelled,
// then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	store, err := draft.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open draft store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close draft store", logger.F("error", err))
		}
	}()
	logger.Info("Draft store ready", logger.F("driver", cfg.Storage.Driver))

	srv := New(draft.NewService(store, nil), cfg.Server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
