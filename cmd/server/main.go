// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package main is the entry point for the Spicelog server.
//
// Spicelog is a centralized log-ingestion and query service: client
// applications submit structured log entries over HTTP, and operators
// query, filter, paginate, aggregate, and purge them.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB and the log_entries schema
//  3. Rate limiter: Per-service fixed-window admission control
//  4. Ingestion pipeline: admission -> validation -> persistence
//  5. Supervisor tree: background sweeps (rate-limit cleanup, retention)
//     and the HTTP server, supervised with automatic restart
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SPICELOG_ prefix, e.g. SPICELOG_SERVER_PORT)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (bounded by
//     server.shutdown_timeout)
//   - Stops background sweeps and closes the database
//
// # Example Usage
//
//	export SPICELOG_SERVER_PORT=8080
//	export SPICELOG_DATABASE_PATH=/data/spicelog.duckdb
//	./spicelog
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/spicelog/internal/api"
	"github.com/tomtom215/spicelog/internal/config"
	"github.com/tomtom215/spicelog/internal/database"
	"github.com/tomtom215/spicelog/internal/ingest"
	"github.com/tomtom215/spicelog/internal/logging"
	"github.com/tomtom215/spicelog/internal/ratelimit"
	"github.com/tomtom215/spicelog/internal/supervisor"
	"github.com/tomtom215/spicelog/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors use the default logger; config is not available yet
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Int("rate_limit_requests", cfg.RateLimit.Requests).
		Int("retention_days", cfg.Retention.Days).
		Msg("Starting Spicelog")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	limiter := ratelimit.New(ratelimit.Config{
		Capacity:      cfg.RateLimit.Requests,
		Window:        cfg.RateLimit.Window,
		SweepInterval: cfg.RateLimit.SweepInterval,
		Disabled:      cfg.RateLimit.Disabled,
	})

	pipeline := ingest.NewPipeline(limiter, db)
	handler := api.NewHandler(db, pipeline)
	server := api.NewServer(api.NewRouter(handler, &cfg.Server), &cfg.Server)

	// Signal-driven shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddMaintenanceService(limiter)
	if !cfg.Retention.Disabled {
		tree.AddMaintenanceService(services.NewRetentionService(db,
			cfg.Retention.Days, cfg.Retention.SweepInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Server listening")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}
