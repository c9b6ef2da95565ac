package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

type GracefulServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	shutdownFn []func(ctx context.Context) error
	mu         sync.RWMutex
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, config *config.Config) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: config,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdownFn = append(gs.shutdownFn, fn)
}

// ListenAndServe runs the HTTP server until it fails or a SIGINT/SIGTERM
// arrives, then drains connections and runs the registered shutdown hooks
// within the configured shutdown timeout.
func (gs *GracefulServer) ListenAndServe() error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.config.Server.ReadTimeout,
			"write_timeout", gs.config.Server.WriteTimeout,
		)
		serverErrors <- gs.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case sig := <-shutdown:
		gs.logger.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), gs.config.Server.ShutdownTimeout)
		defer cancel()

		return gs.shutdown(ctx)
	}
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.config.Server.ShutdownTimeout)

	var firstErr error

	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		firstErr = fmt.Errorf("HTTP server shutdown failed: %w", err)
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.RLock()
	hooks := make([]func(ctx context.Context) error, len(gs.shutdownFn))
	copy(hooks, gs.shutdownFn)
	gs.mu.RUnlock()

	for i, hook := range hooks {
		hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
		err := hook(hookCtx)
		cancel()

		if err != nil {
			gs.logger.Error("shutdown hook failed", "hook_index", i, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown hook %d failed: %w", i, err)
			}
		}

		if ctx.Err() != nil {
			gs.logger.Warn("shutdown timeout exceeded")
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break
		}
	}

	if firstErr == nil {
		gs.logger.Info("graceful shutdown completed")
	}
	return firstErr
}
