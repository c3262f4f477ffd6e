// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package main is the entry point for the Shelfmark server.
//
// Shelfmark is a self-hosted reading tracker with a discovery layer:
// filtered search over the library, similarity scoring between books,
// multi-strategy recommendations and an integrity checker that finds
// and repairs inconsistent records.
//
// # Startup order
//
//  1. Configuration: koanf v2 layering defaults, an optional YAML file
//     and SHELFMARK_-prefixed environment variables
//  2. Logging: zerolog, configured from the logging section
//  3. Database: embedded DuckDB store
//  4. Discovery engines: search, similarity, recommendations, integrity,
//     stats, all reading from the store
//  5. HTTP server: chi REST API under /api/v1 plus /health and /metrics
//
// # Configuration
//
// Every setting has a default; a config.yaml next to the binary (or at
// /etc/shelfmark/, or named by SHELFMARK_CONFIG) overrides it, and
// environment variables override both:
//
//	export SHELFMARK_SERVER_PORT=3850
//	export SHELFMARK_DATABASE_PATH=/data/shelfmark.duckdb
//	export SHELFMARK_LOGGING_LEVEL=debug
//	./shelfmark
//
// # CSV import
//
// A Goodreads or generic CSV export can be loaded before serving:
//
//	./shelfmark -import goodreads_library_export.csv
//
// The importer auto-detects column names, maps shelf names onto reading
// statuses and normalizes dates to ISO form. With -import-only the
// process exits after the import instead of starting the server.
//
// # Signal handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the listener stops
// accepting connections, in-flight requests get 10 seconds to finish,
// then the database is checkpointed and closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfmark/shelfmark/internal/api"
	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/database"
	"github.com/shelfmark/shelfmark/internal/importer"
	"github.com/shelfmark/shelfmark/internal/integrity"
	"github.com/shelfmark/shelfmark/internal/logging"
	"github.com/shelfmark/shelfmark/internal/recommend"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/similarity"
	"github.com/shelfmark/shelfmark/internal/stats"
)

const shutdownTimeout = 10 * time.Second

func main() {
	importPath := flag.String("import", "", "import a CSV library export before serving")
	importOnly := flag.Bool("import-only", false, "exit after the CSV import instead of serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Shelfmark")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if *importPath != "" {
		if err := runImport(db, *importPath); err != nil {
			logging.Error().Err(err).Str("file", *importPath).Msg("CSV import failed")
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			os.Exit(1)
		}
		if *importOnly {
			logging.Info().Msg("Import complete, exiting (-import-only)")
			return
		}
	}

	logger := logging.Logger()

	weights := cfg.Discovery.Weights
	server := api.NewServer(
		cfg.Server,
		cfg.Discovery,
		db,
		search.NewEngine(db, logger),
		similarity.NewFinder(db, weights, logger),
		recommend.NewEngine(db, logger),
		integrity.NewChecker(db, logger),
		stats.NewAggregator(db, logger),
		logger,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Shelfmark stopped gracefully")
}

// runImport loads a CSV library export into the store.
func runImport(db *database.DB, path string) error {
	imp := importer.New(db, logging.With().Str("component", "importer").Logger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := imp.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	logging.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Str("file", path).
		Msg("CSV import complete")
	return nil
}
