// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ravenholt/lorekeep/internal/api"
	"github.com/ravenholt/lorekeep/internal/cache"
	"github.com/ravenholt/lorekeep/internal/campaign"
	"github.com/ravenholt/lorekeep/internal/content"
	"github.com/ravenholt/lorekeep/internal/hooks"
	"github.com/ravenholt/lorekeep/internal/sse"
	"github.com/ravenholt/lorekeep/internal/storage"
	"github.com/ravenholt/lorekeep/internal/watcher"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure content root exists.
	if err := os.MkdirAll(cfg.Content.Root, 0o755); err != nil {
		return fmt.Errorf("create content root: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Load the campaign registry (creates the default campaign on first use).
	campaigns, err := campaign.Load(store)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}

	// Cache, hook pipeline, content manager.
	contentCache := cache.New(cfg.Cache.Enabled, cfg.Cache.TTL())
	hookRegistry := hooks.NewRegistry(logger)
	hooks.RegisterBuiltins(hookRegistry, contentCache, logger)
	mgr := content.NewManager(store, contentCache, hookRegistry, campaigns, logger)

	// SSE broker; manager mutations feed it.
	broker := sse.NewBroker()
	defer broker.Close()
	mgr.OnEvent(func(kind, contentType, campaignID, slug string) {
		broker.PublishContentEvent(kind, contentType, campaignID, slug)
	})

	// Build API router.
	apiRouter := api.NewRouter(mgr, campaigns, contentCache, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the content root so external edits invalidate the cache and
	// reach SSE clients.
	g.Go(func() error {
		err := watcher.Watch(gCtx, contentCache, campaigns, store.Root(), logger,
			func(kind, contentType, campaignID, slug string) {
				broker.PublishContentEvent(kind, contentType, campaignID, slug)
			})
		if err != nil {
			logger.Warn("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
