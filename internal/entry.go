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

	"github.com/starford/othala/internal/api"
	"github.com/starford/othala/internal/catalogs"
	"github.com/starford/othala/internal/covers"
	"github.com/starford/othala/internal/enrich"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/provenance"
	"github.com/starford/othala/internal/sse"
	"github.com/starford/othala/internal/storage"
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

	// MCP mode owns stdout for the protocol; logs go to stderr.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// The field ownership table is static; a contradictory entry is a
	// programming error worth dying for at startup.
	if err := provenance.ValidateTable(); err != nil {
		return fmt.Errorf("field ownership table: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Catalog clients, each optional.
	deps := enrich.Deps{
		Store:    store,
		Index:    db,
		Covers:   covers.New(store, cfg.Vault.Path, cfg.Vault.CoversDir, logger),
		Broker:   broker,
		Logger:   logger,
		GamesDir: cfg.Vault.GamesDir,
		BooksDir: cfg.Vault.BooksDir,
		ReposDir: cfg.Vault.ReposDir,
	}
	if cfg.Catalogs.IGDB.Enabled() {
		deps.IGDB = catalogs.NewIGDB(cfg.Catalogs.IGDB.ClientID, cfg.Catalogs.IGDB.ClientSecret)
		logger.Info("IGDB catalog enabled")
	}
	if cfg.Catalogs.Steam.Enabled() {
		deps.Steam = catalogs.NewSteam(cfg.Catalogs.Steam.APIKey, cfg.Catalogs.Steam.SteamID64)
		logger.Info("Steam catalog enabled")
	}
	if cfg.Catalogs.Calibre.Enabled() {
		calibre, err := catalogs.NewCalibre(cfg.Catalogs.Calibre.LibraryPath)
		if err != nil {
			return fmt.Errorf("open calibre library: %w", err)
		}
		defer calibre.Close()
		deps.Calibre = calibre
		logger.Info("Calibre catalog enabled", slog.String("library", cfg.Catalogs.Calibre.LibraryPath))
	}
	if cfg.Catalogs.GitHub.Token != "" {
		deps.GitHub = catalogs.NewGitHub(cfg.Catalogs.GitHub.Token)
		logger.Info("GitHub catalog enabled")
	}

	enrichSvc := enrich.New(deps)

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(store, db, enrichSvc).ServeStdio()
	}

	// Build API service and router.
	svc := api.NewService(store, db, broker)
	apiRouter := api.NewRouter(svc, enrichSvc, cfg.Auth.AuthEnabled(), cfg.Auth.Token,
		broker, cfg.Vault.Path, cfg.Vault.CoversDir)

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

	// Start file watcher with SSE callback.
	g.Go(func() error {
		index.Watch(gCtx, db, store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishDocumentEvent(kind, path)
		})
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
