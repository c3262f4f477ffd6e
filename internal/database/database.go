// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package database implements the models.Store data accessor over an
// embedded DuckDB database.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/logging"
	"github.com/shelfmark/shelfmark/internal/models"
)

// querier abstracts *sql.DB and *sql.Tx so the same data access methods
// serve both direct calls and transaction-scoped calls.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the DuckDB connection and provides data access methods.
// It implements models.Store.
type DB struct {
	conn *sql.DB
	q    querier
	cfg  *config.DatabaseConfig
}

// compile-time interface check
var _ models.Store = (*DB)(nil)

// New opens (or creates) a DuckDB database at cfg.Path and initializes
// the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn, q: conn, cfg: cfg}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Debug().Str("path", cfg.Path).Msg("database opened")
	return db, nil
}

// Close flushes the WAL with a checkpoint and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("failed to checkpoint database before close")
	}
	return db.conn.Close()
}

// Ping checks that the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// WithTx runs fn with a transaction-scoped store. The transaction commits
// when fn returns nil and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx models.Store) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &DB{conn: db.conn, q: tx, cfg: db.cfg}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// createTables creates the books and reading_logs tables if absent.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id VARCHAR PRIMARY KEY,
			title VARCHAR NOT NULL,
			author VARCHAR NOT NULL,
			status VARCHAR NOT NULL DEFAULT 'wishlist',
			rating INTEGER,
			page_count INTEGER,
			progress VARCHAR,
			tags VARCHAR,
			series VARCHAR,
			series_index DOUBLE,
			isbn VARCHAR,
			isbn13 VARCHAR,
			date_added VARCHAR,
			date_started VARCHAR,
			date_finished VARCHAR,
			publication_year INTEGER,
			publisher VARCHAR,
			goodreads_avg_rating DOUBLE,
			read_next BOOLEAN NOT NULL DEFAULT FALSE,
			comments VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS reading_logs (
			id VARCHAR PRIMARY KEY,
			book_id VARCHAR NOT NULL,
			date VARCHAR NOT NULL,
			pages_read INTEGER,
			start_page INTEGER,
			end_page INTEGER,
			duration_minutes INTEGER,
			location VARCHAR,
			notes VARCHAR,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_books_status ON books(status)`,
		`CREATE INDEX IF NOT EXISTS idx_books_author ON books(author)`,
		`CREATE INDEX IF NOT EXISTS idx_reading_logs_book ON reading_logs(book_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

// closeQuietly closes a resource, logging failures at debug level.
func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("close failed")
	}
}

// normalizeFields lowercases keys and rejects unknown columns so the
// repair path cannot write outside the books schema.
func normalizeFields(fields map[string]any) (map[string]any, error) {
	allowed := map[string]struct{}{
		"title": {}, "author": {}, "status": {}, "rating": {},
		"page_count": {}, "progress": {}, "tags": {}, "series": {},
		"series_index": {}, "isbn": {}, "isbn13": {}, "date_added": {},
		"date_started": {}, "date_finished": {}, "publication_year": {},
		"publisher": {}, "goodreads_avg_rating": {}, "read_next": {},
		"comments": {},
	}

	out := make(map[string]any, len(fields))
	for key, value := range fields {
		col := strings.ToLower(strings.TrimSpace(key))
		if _, ok := allowed[col]; !ok {
			return nil, fmt.Errorf("unknown book column %q", key)
		}
		out[col] = value
	}
	return out, nil
}
