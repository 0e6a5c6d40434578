package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"snapfeed/internal/config"
	"snapfeed/internal/feed"
	"snapfeed/internal/handlers"
	"snapfeed/internal/middleware"
	"snapfeed/internal/router"
	"snapfeed/internal/storage"
	"snapfeed/internal/storage/sqlite"
	"snapfeed/internal/telemetry"
)

const version = "0.3.0"

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
}

func NewApp(cfg *config.Config, logger *slog.Logger, handler http.Handler) *App {

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	// attempt clean shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		// graceful shutdown timed out
		if closeErr := a.Server.Close(); closeErr != nil {
			// both failed. Return combined error.
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Store(cfg.S3)
	default:
		return storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	}
}

func main() {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	stderr := os.Stderr
	logHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid())
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"storage_backend", cfg.Storage.Backend,
		"trusted_proxy", cfg.Proxy.Trusted,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, version, cfg.App.Environment,
		cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		logger.Error("telemetry init", "err", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		logger.Error("metrics init", "err", err)
		os.Exit(1)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		logger.Error("could not create blob store", "err", err)
		os.Exit(1)
	}

	isProd := cfg.App.Environment == "prod"

	sessions := middleware.NewSessionManager(cfg.Auth.SessionLifetime, isProd, store.RawDB())
	feedSvc := feed.NewService(store, blobs, logger, metrics)
	api := handlers.NewAPIHandler(store, feedSvc, sessions, logger, cfg.Storage.MaxUploadBytes)

	router := router.NewRouter(router.RouterDependencies{
		Cfg:         cfg,
		Logger:      logger,
		API:         api,
		Tracer:      tel.Tracer,
		Metrics:     metrics,
		Session:     sessions,
		CSRF:        middleware.NewCSRF(isProd),
		Headers:     middleware.NewSecurityHeaders(isProd),
		PromHandler: tel.PrometheusHandler,
	})

	app := NewApp(cfg, logger, router)

	// run the app with context
	if err := app.Run(rootCtx); err != nil {
		logger.Error("server crashed", "err", err)
		os.Exit(1)
	}

	logger.Info("application exited successfully")
	os.Exit(0)
}
