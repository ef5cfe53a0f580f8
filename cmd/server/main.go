package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/insights/internal/app"
	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/logging"
	"github.com/JonMunkholm/insights/internal/web"
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

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	history, closeHistory, err := app.OpenHistory(ctx, cfg)
	if err != nil {
		slog.Error("failed to open run history", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	service := app.NewService(cfg, app.NewBackend(cfg), history)

	slog.Info("analyses registered", "count", len(service.Catalog()))
	for _, def := range service.Catalog() {
		slog.Debug("analysis", "name", def.Spec.Name, "endpoint", def.Spec.Endpoint, "group", def.Group)
	}

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSessionSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
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

		// Wait for active runs to settle (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
		}
		if err := service.WaitForRuns(shutdownCtx); err != nil {
			slog.Warn("runs did not complete in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
	waitForShutdown(service, cfg)
}

// waitForShutdown gives in-flight runs the shutdown timeout to settle after
// the listener has closed.
func waitForShutdown(service *core.Service, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := service.WaitForRuns(ctx); err != nil {
		slog.Warn("exiting with runs still in flight", "error", err)
	}
}
