package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/config"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/dataset"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/middleware"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/observability"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/server"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/services"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	loadTimeout   = 60 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

func dashboardHandler(reports *services.Reports) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		minDate, maxDate := reports.FullRange()

		w.Header().Set("Cache-Control", cacheMaxAge)
		page := templates.Dashboard(minDate.Format(time.DateOnly), maxDate.Format(time.DateOnly))
		if err := page.Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	ds, err := dataset.NewLoader(logger).Load(ctx, cfg.Dataset.CSVFile)
	if err != nil {
		logger.Error("failed to load order dataset", "error", err)
		os.Exit(1)
	}

	reports := services.NewReports(ds, cfg.ReferenceInstant(), logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(reports),
	}

	srv := server.NewServer(reports, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down report service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
