// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package models

import "time"

// ReadingLog is a dated record of a single reading session.
//
// BookID is a foreign reference that may be orphaned; orphaned logs are a
// detectable integrity violation rather than a store-level constraint.
type ReadingLog struct {
	// ID is the stable unique identifier (UUID string).
	ID string `json:"id"`

	// BookID references the book this session belongs to.
	BookID string `json:"book_id"`

	// Date is the session date as an ISO date string (YYYY-MM-DD).
	Date string `json:"date"`

	// PagesRead is the number of pages read. Must be non-negative.
	PagesRead *int `json:"pages_read,omitempty"`

	// StartPage and EndPage bound the session; EndPage >= StartPage
	// must hold when both are present.
	StartPage *int `json:"start_page,omitempty"`
	EndPage   *int `json:"end_page,omitempty"`

	// DurationMinutes is the session length. Must be non-negative.
	DurationMinutes *int `json:"duration_minutes,omitempty"`

	// Location is where the session took place.
	Location *string `json:"location,omitempty"`

	// Notes holds free-form session notes.
	Notes *string `json:"notes,omitempty"`

	// CreatedAt is the store-managed creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}
