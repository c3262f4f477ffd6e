// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package search

import (
	"context"

	"github.com/shelfmark/shelfmark/internal/models"
)

// QuickSearch runs a free-text query against title and author.
func (e *Engine) QuickSearch(ctx context.Context, query string) (*Result, error) {
	return e.Search(ctx, Filters{Query: query})
}

// SearchByAuthor returns books by an author substring match, optionally
// restricted to one status.
func (e *Engine) SearchByAuthor(ctx context.Context, author string, status *models.BookStatus) (*Result, error) {
	return e.Search(ctx, Filters{
		Author: author,
		Status: status,
	})
}

// SearchByTags returns books matching the tag set. With matchAll every tag
// must be present; otherwise any one suffices. An empty tag list matches
// nothing.
func (e *Engine) SearchByTags(ctx context.Context, tags []string, matchAll bool) (*Result, error) {
	if len(tags) == 0 {
		return &Result{Books: []models.Book{}}, nil
	}
	return e.Search(ctx, Filters{
		Tags:   tags,
		AnyTag: !matchAll,
	})
}

// LongBooks returns books of at least minPages, longest first. Books with
// an unknown page count are excluded.
func (e *Engine) LongBooks(ctx context.Context, minPages int) (*Result, error) {
	return e.Search(ctx, Filters{
		MinPages: &minPages,
		SortBy:   SortPageCountDesc,
	})
}

// ShortBooks returns books of at most maxPages, shortest first. Books with
// an unknown page count are excluded.
func (e *Engine) ShortBooks(ctx context.Context, maxPages int) (*Result, error) {
	return e.Search(ctx, Filters{
		MaxPages: &maxPages,
		SortBy:   SortPageCountAsc,
	})
}

// CurrentlyReading returns books with reading status, oldest started first.
func (e *Engine) CurrentlyReading(ctx context.Context) (*Result, error) {
	status := models.StatusReading
	return e.Search(ctx, Filters{
		Status: &status,
		SortBy: SortDateAddedAsc,
	})
}

// Wishlist returns wishlist books, newest added first.
func (e *Engine) Wishlist(ctx context.Context) (*Result, error) {
	status := models.StatusWishlist
	return e.Search(ctx, Filters{
		Status: &status,
		SortBy: SortDateAddedDesc,
	})
}

// RecentlyFinished returns completed books, most recently finished first.
func (e *Engine) RecentlyFinished(ctx context.Context, limit int) (*Result, error) {
	status := models.StatusCompleted
	return e.Search(ctx, Filters{
		Status: &status,
		SortBy: SortDateFinishedDesc,
		Limit:  limit,
	})
}

// TopRated returns books rated at or above minRating, highest first.
func (e *Engine) TopRated(ctx context.Context, minRating int) (*Result, error) {
	return e.Search(ctx, Filters{
		MinRating: &minRating,
		SortBy:    SortRatingDesc,
	})
}

// ReadNextQueue returns books flagged read-next, newest added first.
func (e *Engine) ReadNextQueue(ctx context.Context) (*Result, error) {
	flagged := true
	return e.Search(ctx, Filters{
		ReadNext: &flagged,
		SortBy:   SortDateAddedDesc,
	})
}

// BySeries returns every book in series order for a series name match.
func (e *Engine) BySeries(ctx context.Context, series string) (*Result, error) {
	return e.Search(ctx, Filters{
		Series: series,
		SortBy: SortSeriesIndexAsc,
	})
}

// ByTag returns books carrying the tag, newest added first.
func (e *Engine) ByTag(ctx context.Context, tag string) (*Result, error) {
	return e.Search(ctx, Filters{
		Tags:   []string{tag},
		SortBy: SortDateAddedDesc,
	})
}

// Unread returns wishlist and on-hold books, newest added first.
func (e *Engine) Unread(ctx context.Context) (*Result, error) {
	return e.Search(ctx, Filters{
		Statuses: []models.BookStatus{models.StatusWishlist, models.StatusOnHold},
		SortBy:   SortDateAddedDesc,
	})
}
