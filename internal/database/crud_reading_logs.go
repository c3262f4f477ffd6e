// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/internal/models"
)

const logColumns = `id, book_id, date, pages_read, start_page, end_page,
	duration_minutes, location, notes, created_at`

// ListReadingLogs returns reading logs ordered by date then ID, scoped to
// one book when bookID is non-empty.
func (db *DB) ListReadingLogs(ctx context.Context, bookID string) ([]models.ReadingLog, error) {
	query := fmt.Sprintf("SELECT %s FROM reading_logs", logColumns)
	args := []any{}
	if bookID != "" {
		query += " WHERE book_id = ?"
		args = append(args, bookID)
	}
	query += " ORDER BY date, id"

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reading logs: %w", err)
	}
	defer closeQuietly(rows)

	var logs []models.ReadingLog
	for rows.Next() {
		var l models.ReadingLog
		err := rows.Scan(
			&l.ID, &l.BookID, &l.Date, &l.PagesRead,
			&l.StartPage, &l.EndPage, &l.DurationMinutes,
			&l.Location, &l.Notes, &l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reading log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reading logs: %w", err)
	}
	return logs, nil
}

// InsertReadingLog stores a new reading log, generating an ID when none is
// set, and returns the stored ID.
func (db *DB) InsertReadingLog(ctx context.Context, log *models.ReadingLog) (string, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now().UTC()

	query := fmt.Sprintf("INSERT INTO reading_logs (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", logColumns)
	_, err := db.q.ExecContext(ctx, query,
		log.ID, log.BookID, log.Date, log.PagesRead,
		log.StartPage, log.EndPage, log.DurationMinutes,
		log.Location, log.Notes, log.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert reading log: %w", err)
	}
	return log.ID, nil
}
