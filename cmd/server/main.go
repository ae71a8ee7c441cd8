package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/gazette-import/internal/config"
	"github.com/JonMunkholm/gazette-import/internal/core"
	"github.com/JonMunkholm/gazette-import/internal/database"
	"github.com/JonMunkholm/gazette-import/internal/logging"
	"github.com/JonMunkholm/gazette-import/internal/store"
	"github.com/JonMunkholm/gazette-import/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_url", cfg.Store.BaseURL,
		"database", cfg.Database.Enabled(),
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	var pg *store.PostgresStore
	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg = store.NewPostgresStore(pool)
	}

	// The REST endpoint receives notices when configured; otherwise they
	// are written to Postgres directly.
	var target core.RecordStore
	switch {
	case cfg.Store.BaseURL != "":
		httpStore, err := store.NewHTTPStore(store.HTTPOptions{
			BaseURL:     cfg.Store.BaseURL,
			NoticesPath: cfg.Store.NoticesPath,
			AuthToken:   cfg.Store.AuthToken,
			Timeout:     cfg.Store.Timeout,
		})
		if err != nil {
			slog.Error("failed to create record store", "error", err)
			os.Exit(1)
		}
		slog.Info("submitting notices over HTTP", "url", httpStore.URL())
		target = httpStore
	case pg != nil:
		slog.Info("submitting notices to postgres")
		target = pg
	default:
		slog.Error("no record store configured", "hint", "set STORE_BASE_URL or DATABASE_URL")
		os.Exit(1)
	}

	opts := core.ServiceOptions{
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
	}
	var history web.HistoryLister
	if pg != nil {
		opts.History = pg
		history = pg
	}

	service, err := core.NewService(target, opts)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, history)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartJanitor(jobCtx, core.JanitorConfig{
		Retention: cfg.Import.BatchRetention,
		Interval:  cfg.Import.JanitorInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Running passes keep submitting after their requests are gone.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	if cfg.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("database schema applied")
	}
	return pool, nil
}
