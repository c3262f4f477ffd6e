// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/internal/models"
)

// bookColumns is the column list shared by every book query, kept in one
// place so scanBook stays in sync with it.
const bookColumns = `id, title, author, status, rating, page_count, progress,
	tags, series, series_index, isbn, isbn13, date_added, date_started,
	date_finished, publication_year, publisher, goodreads_avg_rating,
	read_next, comments, created_at, updated_at`

// ListBooks returns every book, ordered by ID for deterministic iteration.
func (db *DB) ListBooks(ctx context.Context) ([]models.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books ORDER BY id", bookColumns)
	rows, err := db.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer closeQuietly(rows)

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// GetBook returns the book with the given ID, or nil when absent.
func (db *DB) GetBook(ctx context.Context, id string) (*models.Book, error) {
	query := fmt.Sprintf("SELECT %s FROM books WHERE id = ?", bookColumns)
	row := db.q.QueryRowContext(ctx, query, id)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return book, nil
}

// InsertBook stores a new book, generating an ID when none is set, and
// returns the stored ID.
func (db *DB) InsertBook(ctx context.Context, book *models.Book) (string, error) {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO books (%s) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, bookColumns)

	_, err := db.q.ExecContext(ctx, query,
		book.ID, book.Title, book.Author, book.Status,
		book.Rating, book.PageCount, book.Progress,
		nullableJSON(book.TagsJSON), book.Series, book.SeriesIndex,
		book.ISBN, book.ISBN13,
		book.DateAdded, book.DateStarted, book.DateFinished,
		book.PublicationYear, book.Publisher, book.GoodreadsAvgRating,
		book.ReadNext, book.Comments, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}
	return book.ID, nil
}

// UpdateBookFields applies a partial update to a book. Unknown columns are
// rejected; updated_at is always refreshed.
func (db *DB) UpdateBookFields(ctx context.Context, id string, fields map[string]any) error {
	cols, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("no fields to update for book %s", id)
	}

	// Deterministic column order keeps the generated SQL stable.
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	setClauses := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+2)
	for _, name := range names {
		setClauses = append(setClauses, name+" = ?")
		args = append(args, cols[name])
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE books SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	result, err := db.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update book %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("book %s not found", id)
	}
	return nil
}

// DeleteBook removes a book. Its reading logs are left in place; the
// integrity checker reports them as orphaned.
func (db *DB) DeleteBook(ctx context.Context, id string) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBook scans one book row into a models.Book.
func scanBook(row rowScanner) (*models.Book, error) {
	var (
		book models.Book
		tags sql.NullString
	)
	err := row.Scan(
		&book.ID, &book.Title, &book.Author, &book.Status,
		&book.Rating, &book.PageCount, &book.Progress,
		&tags, &book.Series, &book.SeriesIndex,
		&book.ISBN, &book.ISBN13,
		&book.DateAdded, &book.DateStarted, &book.DateFinished,
		&book.PublicationYear, &book.Publisher, &book.GoodreadsAvgRating,
		&book.ReadNext, &book.Comments, &book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags.Valid {
		book.TagsJSON = tags.String
	}
	return &book, nil
}

// nullableJSON maps an empty JSON text to NULL so the tags column stores
// NULL rather than "".
func nullableJSON(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
