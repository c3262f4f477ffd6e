// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package models

import "context"

// Store is the data accessor boundary consumed by the discovery and
// integrity subsystems. It is implemented by the database package; tests
// substitute in-memory fakes.
//
// Note: the interface lives here, next to the record types, so that the
// consuming packages depend only on models and stay free of import cycles
// with the database layer.
type Store interface {
	// ListBooks returns every book in the library.
	ListBooks(ctx context.Context) ([]Book, error)

	// GetBook returns the book with the given ID, or nil when it does
	// not exist. Absence is not an error.
	GetBook(ctx context.Context, id string) (*Book, error)

	// ListReadingLogs returns reading logs, scoped to one book when
	// bookID is non-empty.
	ListReadingLogs(ctx context.Context, bookID string) ([]ReadingLog, error)

	// UpdateBookFields applies a partial update to a book. Only the
	// integrity repair path writes through this method.
	UpdateBookFields(ctx context.Context, id string, fields map[string]any) error

	// WithTx runs fn inside a single write transaction so that a batch
	// of repairs either fully persists or not at all.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
