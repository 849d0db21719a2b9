package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/exportsync/internal/config"
	"github.com/JonMunkholm/exportsync/internal/core"
	_ "github.com/JonMunkholm/exportsync/internal/core/tables" // Register all layouts
	"github.com/JonMunkholm/exportsync/internal/logging"
	"github.com/JonMunkholm/exportsync/internal/store"
	"github.com/JonMunkholm/exportsync/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"run_max_concurrent", cfg.Runs.MaxConcurrent,
		"schedule_interval", cfg.Runs.ScheduleInterval,
		"sources_file", cfg.Sources.File,
	)

	sources, err := config.LoadSources(cfg.Sources.File)
	if err != nil {
		slog.Error("failed to load sources", "error", err)
		os.Exit(1)
	}

	opener, err := store.NewOpener(store.Options{
		Driver:          cfg.Database.Driver,
		DefaultDSN:      cfg.Database.URL,
		BatchSize:       cfg.Database.BatchSize,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to create store opener", "error", err)
		os.Exit(1)
	}
	defer opener.Close()

	// Verify the default destination before accepting requests
	ctx := context.Background()
	if err := opener.Ping(ctx); err != nil {
		slog.Error("failed to reach destination", "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}

	service, err := core.NewService(opener, sources, core.ServiceOptions{
		MaxConcurrentRuns: cfg.Runs.MaxConcurrent,
		RunWait:           cfg.Runs.MaxWaitTime,
		HistorySize:       cfg.Runs.HistorySize,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("sources configured", "count", len(sources), "layouts", core.Keys())
	for _, s := range sources {
		slog.Debug("source", "name", s.Name, "layout", s.Layout, "table", s.Table)
	}

	server := web.NewServer(service, opener, cfg.Server)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if cfg.Runs.ScheduleInterval > 0 {
		go service.StartScheduler(jobCtx, cfg.Runs.ScheduleInterval)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for active runs to complete (with timeout)
		status := service.Limiter().Status()
		if status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		return
	}
	<-done
}
