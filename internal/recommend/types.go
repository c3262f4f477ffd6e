// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package recommend surfaces books from the unread shelf using the
// reader's own history: flagged queues, series progress, favourite
// authors and genres, and reading pace.
package recommend

import "github.com/shelfmark/shelfmark/internal/models"

// Type identifies the strategy that produced a recommendation.
type Type int

const (
	// TypeReadNext surfaces books the reader explicitly queued.
	TypeReadNext Type = iota
	// TypeBySeries surfaces the next unread entry in a started series.
	TypeBySeries
	// TypeByAuthor surfaces unread books by well-rated authors.
	TypeByAuthor
	// TypeByGenre surfaces unread books in favourite genres.
	TypeByGenre
	// TypeHighlyRated surfaces unread books with strong community ratings.
	TypeHighlyRated
	// TypeByLength surfaces unread books matching the recent reading pace.
	TypeByLength
	// TypeQuickRead surfaces short unread books.
	TypeQuickRead
	// TypeRecentlyAdded surfaces the newest additions to the shelf.
	TypeRecentlyAdded
	// TypeLongAwaited surfaces the books waiting longest on the shelf.
	TypeLongAwaited
)

// String returns the stable wire name of the recommendation type.
func (t Type) String() string {
	switch t {
	case TypeReadNext:
		return "read_next"
	case TypeBySeries:
		return "by_series"
	case TypeByAuthor:
		return "by_author"
	case TypeByGenre:
		return "by_genre"
	case TypeHighlyRated:
		return "highly_rated"
	case TypeByLength:
		return "by_length"
	case TypeQuickRead:
		return "quick_read"
	case TypeRecentlyAdded:
		return "recently_added"
	case TypeLongAwaited:
		return "long_awaited"
	default:
		return "unknown"
	}
}

// AllTypes lists every strategy in merge order.
func AllTypes() []Type {
	return []Type{
		TypeReadNext,
		TypeBySeries,
		TypeByAuthor,
		TypeByGenre,
		TypeHighlyRated,
		TypeByLength,
		TypeQuickRead,
		TypeRecentlyAdded,
		TypeLongAwaited,
	}
}

// ParseType maps a wire name to a Type.
func ParseType(raw string) (Type, bool) {
	for _, t := range AllTypes() {
		if t.String() == raw {
			return t, true
		}
	}
	return 0, false
}

// Recommendation is one suggested book with the reasoning behind it.
type Recommendation struct {
	// Book is the suggested book.
	Book models.Book `json:"book"`

	// Type names the strategy that produced the suggestion.
	Type Type `json:"type"`

	// Reason is a human-readable explanation, never empty.
	Reason string `json:"reason"`

	// Score ranks suggestions across strategies, in [0, 1].
	Score float64 `json:"score"`

	// Metadata carries strategy-specific context, such as the series
	// name or the matched author.
	Metadata map[string]any `json:"metadata,omitempty"`
}
