// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Book is a tracked reading item.
//
// Optional fields are pointers so "absent" is distinguishable from a zero
// value. Status, TagsJSON, Progress and the date fields carry the raw stored
// text: they are validated by their accessors and by the integrity checker,
// not by the type system.
type Book struct {
	// ID is the stable unique identifier (UUID string).
	ID string `json:"id"`

	// Title is the book title. Emptiness is an integrity violation.
	Title string `json:"title"`

	// Author is the primary author. Emptiness is an integrity violation.
	Author string `json:"author"`

	// Status is the raw stored reading status string.
	// Use ParsedStatus for the validated enumeration.
	Status string `json:"status"`

	// Rating is the user rating on the 1-5 scale.
	Rating *int `json:"rating,omitempty"`

	// PageCount is the total page count.
	PageCount *int `json:"page_count,omitempty"`

	// Progress is a "<current>/<total>" page marker, e.g. "150/300".
	Progress *string `json:"progress,omitempty"`

	// TagsJSON is the raw stored tag list as JSON text, e.g. `["fantasy"]`.
	TagsJSON string `json:"tags,omitempty"`

	// Series is the series name, if the book belongs to one.
	Series *string `json:"series,omitempty"`

	// SeriesIndex is the position within the series.
	SeriesIndex *float64 `json:"series_index,omitempty"`

	// ISBN is the 10-digit identifier.
	ISBN *string `json:"isbn,omitempty"`

	// ISBN13 is the 13-digit identifier.
	ISBN13 *string `json:"isbn13,omitempty"`

	// DateAdded, DateStarted and DateFinished are ISO dates (YYYY-MM-DD).
	DateAdded    *string `json:"date_added,omitempty"`
	DateStarted  *string `json:"date_started,omitempty"`
	DateFinished *string `json:"date_finished,omitempty"`

	// PublicationYear is the year of publication.
	PublicationYear *int `json:"publication_year,omitempty"`

	// Publisher is the publishing house.
	Publisher *string `json:"publisher,omitempty"`

	// GoodreadsAvgRating is the community average rating (0-5).
	GoodreadsAvgRating *float64 `json:"goodreads_avg_rating,omitempty"`

	// ReadNext flags a book the user explicitly wants to read next.
	ReadNext bool `json:"read_next"`

	// Comments holds free-form user notes.
	Comments *string `json:"comments,omitempty"`

	// CreatedAt and UpdatedAt are store-managed timestamps.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParsedStatus validates the raw status string into the enumeration.
func (b *Book) ParsedStatus() (BookStatus, error) {
	return ParseStatus(b.Status)
}

// IsUnread reports whether the book's status is wishlist or on hold.
// A book with an invalid status is not considered unread.
func (b *Book) IsUnread() bool {
	s, err := b.ParsedStatus()
	return err == nil && s.IsUnread()
}

// Tags parses TagsJSON into a string slice.
// An empty TagsJSON yields an empty slice; malformed JSON or a non-list
// value yields an error for the integrity checker to report.
func (b *Book) Tags() ([]string, error) {
	if strings.TrimSpace(b.TagsJSON) == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(b.TagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("tags are not a JSON string list: %w", err)
	}
	return tags, nil
}

// SetTags replaces TagsJSON with the JSON encoding of tags.
func (b *Book) SetTags(tags []string) error {
	if len(tags) == 0 {
		b.TagsJSON = ""
		return nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	b.TagsJSON = string(data)
	return nil
}

// ParsedProgress parses the Progress marker into (current, total).
// Returns ok=false when Progress is absent; an error when the marker does
// not parse as "<int>/<int>".
func (b *Book) ParsedProgress() (current, total int, ok bool, err error) {
	if b.Progress == nil || strings.TrimSpace(*b.Progress) == "" {
		return 0, 0, false, nil
	}
	parts := strings.SplitN(*b.Progress, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("progress %q is not of the form current/total", *b.Progress)
	}
	current, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("progress %q has non-numeric current page", *b.Progress)
	}
	total, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("progress %q has non-numeric total page", *b.Progress)
	}
	return current, total, true, nil
}

// ISODate is the date layout used by DateAdded, DateStarted and DateFinished.
const ISODate = "2006-01-02"

// ParseISODate parses a stored ISO date string.
func ParseISODate(raw string) (time.Time, error) {
	return time.Parse(ISODate, raw)
}
