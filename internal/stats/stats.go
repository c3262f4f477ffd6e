// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package stats aggregates the reading history into per-author rankings
// and library-wide insights.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// AuthorStat is the reading history aggregated for one author.
type AuthorStat struct {
	// Author is the display name as stored on the first seen book.
	Author string `json:"author"`

	// BooksRead counts completed books by the author.
	BooksRead int `json:"books_read"`

	// AvgRating averages the reader's ratings of those books; 0 when
	// none are rated.
	AvgRating float64 `json:"avg_rating"`

	// RatedBooks counts how many of the completed books carry a rating.
	RatedBooks int `json:"rated_books"`

	// TotalPages sums page counts of the completed books.
	TotalPages int `json:"total_pages"`
}

// ReadingInsights summarizes the whole library.
type ReadingInsights struct {
	TotalBooks     int `json:"total_books"`
	CompletedBooks int `json:"completed_books"`
	InProgress     int `json:"in_progress"`
	Wishlist       int `json:"wishlist"`
	OnHold         int `json:"on_hold"`
	Abandoned      int `json:"abandoned"`

	// TotalPagesRead sums page counts across completed books.
	TotalPagesRead int `json:"total_pages_read"`

	// AvgRating averages ratings across all rated books.
	AvgRating float64 `json:"avg_rating"`

	// RatingCounts maps rating value (1-5) to how often it was given.
	RatingCounts map[int]int `json:"rating_counts"`

	// LogEntries counts reading log records; LoggedMinutes sums their
	// durations.
	LogEntries    int `json:"log_entries"`
	LoggedMinutes int `json:"logged_minutes"`
}

// Aggregator computes statistics over the library.
type Aggregator struct {
	store  models.Store
	logger zerolog.Logger
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store models.Store, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logger.With().Str("component", "stats").Logger(),
	}
}

// AuthorStats aggregates completed books per author, ranked by books
// read, then average rating, then name. Authors are grouped
// case-insensitively.
func (a *Aggregator) AuthorStats(ctx context.Context) ([]AuthorStat, error) {
	books, err := a.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	byAuthor := make(map[string]*AuthorStat)
	ratingSums := make(map[string]int)
	for _, b := range books {
		if b.Status != models.StatusCompleted.String() {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(b.Author))
		if key == "" {
			continue
		}
		st := byAuthor[key]
		if st == nil {
			st = &AuthorStat{Author: strings.TrimSpace(b.Author)}
			byAuthor[key] = st
		}
		st.BooksRead++
		if b.Rating != nil {
			ratingSums[key] += *b.Rating
			st.RatedBooks++
		}
		if b.PageCount != nil && *b.PageCount > 0 {
			st.TotalPages += *b.PageCount
		}
	}

	stats := make([]AuthorStat, 0, len(byAuthor))
	for key, st := range byAuthor {
		if st.RatedBooks > 0 {
			st.AvgRating = float64(ratingSums[key]) / float64(st.RatedBooks)
		}
		stats = append(stats, *st)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].BooksRead != stats[j].BooksRead {
			return stats[i].BooksRead > stats[j].BooksRead
		}
		if stats[i].AvgRating != stats[j].AvgRating {
			return stats[i].AvgRating > stats[j].AvgRating
		}
		return stats[i].Author < stats[j].Author
	})

	a.logger.Debug().Int("authors", len(stats)).Msg("Author stats computed")
	return stats, nil
}

// Insights summarizes the library: status distribution, pages read,
// rating distribution and logged reading time.
func (a *Aggregator) Insights(ctx context.Context) (*ReadingInsights, error) {
	books, err := a.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	logs, err := a.store.ListReadingLogs(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list reading logs: %w", err)
	}

	ins := &ReadingInsights{
		TotalBooks:   len(books),
		RatingCounts: make(map[int]int),
		LogEntries:   len(logs),
	}

	ratingSum, rated := 0, 0
	for _, b := range books {
		switch b.Status {
		case models.StatusCompleted.String():
			ins.CompletedBooks++
			if b.PageCount != nil && *b.PageCount > 0 {
				ins.TotalPagesRead += *b.PageCount
			}
		case models.StatusReading.String():
			ins.InProgress++
		case models.StatusWishlist.String():
			ins.Wishlist++
		case models.StatusOnHold.String():
			ins.OnHold++
		case models.StatusDNF.String():
			ins.Abandoned++
		}
		if b.Rating != nil && *b.Rating >= 1 && *b.Rating <= 5 {
			ins.RatingCounts[*b.Rating]++
			ratingSum += *b.Rating
			rated++
		}
	}
	if rated > 0 {
		ins.AvgRating = float64(ratingSum) / float64(rated)
	}

	for _, l := range logs {
		if l.DurationMinutes != nil && *l.DurationMinutes > 0 {
			ins.LoggedMinutes += *l.DurationMinutes
		}
	}

	return ins, nil
}
