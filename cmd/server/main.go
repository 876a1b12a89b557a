// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

// Package main is the entry point for the Innledger audit journal server.
//
// Innledger records every sensitive front-desk operation (reservations,
// payments, invoices, fiscal submissions, settings, imports and exports,
// logins) in an append-only audit trail and answers statistics, compliance
// and suspicious-activity queries over it.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, environment (Koanf v2)
//  2. Logging: zerolog, level and format from configuration
//  3. Audit store: DuckDB, Badger or in-memory, behind a circuit breaker
//  4. Journal: the single process-wide audit journal
//  5. Supervisor tree: sync worker, retention worker, HTTP server
//
// # Signal Handling
//
// On SIGINT or SIGTERM the HTTP server stops accepting requests, the journal
// flushes its buffer one last time (bounded by AUDIT_DRAIN_TIMEOUT) and the
// store is closed.
//
// # Example Usage
//
//	export STORE_DRIVER=duckdb
//	export DUCKDB_PATH=/data/innledger.duckdb
//	export AUDIT_RETENTION_DAYS=3650
//	./innledger
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/innledger/internal/api"
	"github.com/tomtom215/innledger/internal/audit"
	"github.com/tomtom215/innledger/internal/config"
	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/supervisor"
	"github.com/tomtom215/innledger/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_driver", cfg.Store.Driver).
		Int("buffer_capacity", cfg.Audit.BufferCapacity).
		Dur("flush_interval", cfg.Audit.FlushInterval).
		Bool("circuit_breaker", cfg.Breaker.Enabled).
		Msg("Starting Innledger")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Innledger stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Innledger stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	opened, err := audit.OpenStore(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := opened.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit store")
		}
	}()

	journalOpts, err := cfg.JournalOptions()
	if err != nil {
		return err
	}
	journal, err := audit.NewJournal(opened, journalOpts)
	if err != nil {
		return err
	}

	treeConfig := supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	}
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if tree.Config().ShutdownTimeout <= cfg.Audit.DrainTimeout {
		logging.Warn().
			Dur("shutdown_timeout", tree.Config().ShutdownTimeout).
			Dur("drain_timeout", cfg.Audit.DrainTimeout).
			Msg("Supervisor shutdown timeout does not exceed the audit drain timeout; the final flush may be cut short")
	}

	tree.AddDataService(services.NewJournalSyncService(journal))
	addRetention(tree, cfg, opened)

	tree.AddAPIService(services.NewHTTPServerService(newHTTPServer(cfg, journal, opened), cfg.Server.Timeout))

	watchConfig()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Supervisor tree starting")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// addRetention adds the retention worker when retention is configured and
// the store can purge.
func addRetention(tree *supervisor.SupervisorTree, cfg *config.Config, opened *audit.OpenedStore) {
	if !cfg.Audit.RetentionEnabled() {
		return
	}
	purger, ok := opened.Purger()
	if !ok {
		logging.Warn().Str("driver", cfg.Store.Driver).Msg("Audit store does not support retention; old events are kept")
		return
	}
	tree.AddDataService(services.NewRetentionService(purger, cfg.Audit.Retention(), cfg.Audit.CleanupInterval))
	logging.Info().
		Int("retention_days", cfg.Audit.RetentionDays).
		Dur("cleanup_interval", cfg.Audit.CleanupInterval).
		Msg("Audit retention enabled")
}

func newHTTPServer(cfg *config.Config, journal *audit.Journal, opened *audit.OpenedStore) *http.Server {
	var breaker api.BreakerState
	if bs, ok := opened.Store.(*audit.BreakerStore); ok {
		breaker = bs
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Server.RateLimitWindow

	router := api.NewRouter(api.NewHandler(journal, breaker), mwConfig)
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}
}

// watchConfig applies log level changes from the config file without a
// restart. Other settings need a restart.
func watchConfig() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		next, err := config.LoadWithKoanf()
		if err != nil {
			logging.Warn().Err(err).Msg("Config reload failed; keeping current settings")
			return
		}
		logging.SetLevelString(next.Logging.Level)
		logging.Info().Str("level", next.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
