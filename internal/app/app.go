// Package app wires configuration into the running pieces of the
// application: the analysis client, the run history and the service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/insights/internal/analysis"
	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/core"
	_ "github.com/JonMunkholm/insights/internal/core/analyses" // Register all analyses
)

// NewBackend creates the analysis service client.
func NewBackend(cfg *config.Config) *analysis.Client {
	return analysis.NewClient(cfg.Analysis.BaseURL, analysis.Options{
		UploadPath: cfg.Analysis.UploadPath,
		Timeout:    cfg.Analysis.CallTimeout,
	})
}

// NewService creates the service for backend. history may be nil to keep
// runs in memory.
func NewService(cfg *config.Config, backend core.Backend, history core.RunHistory) *core.Service {
	if history == nil {
		history = core.NewMemoryRunHistory(cfg.Database.HistoryLimit)
	}
	return core.NewService(backend, core.All(), history, core.ServiceConfig{
		Orchestrator: core.OrchestratorConfig{
			CallTimeout: cfg.Analysis.CallTimeout,
			MaxParallel: cfg.Analysis.MaxParallel,
		},
		MaxConcurrentRuns: cfg.Run.MaxConcurrent,
		MaxWait:           cfg.Run.MaxWaitTime,
		RunTimeout:        cfg.Run.Timeout,
		SessionTTL:        cfg.Session.TTL,
	})
}

// OpenHistory returns the run history selected by cfg: PostgreSQL when a
// database URL is configured, memory otherwise. The returned func releases
// the connection pool.
func OpenHistory(ctx context.Context, cfg *config.Config) (core.RunHistory, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("run history kept in memory", "limit", cfg.Database.HistoryLimit)
		return core.NewMemoryRunHistory(cfg.Database.HistoryLimit), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	history := core.NewPostgresRunHistory(pool)
	if err := history.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("run history stored in database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return history, pool.Close, nil
}
