// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// Engine executes filtered, sorted, paginated queries over the library.
type Engine struct {
	store  models.Store
	logger zerolog.Logger
}

// NewEngine creates a search engine backed by the given store.
func NewEngine(store models.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With().Str("component", "search").Logger(),
	}
}

// Search applies the filters against the full library and returns one
// page of results. A zero Limit uses DefaultLimit; a negative Limit or
// Offset is an error.
func (e *Engine) Search(ctx context.Context, filters Filters) (*Result, error) {
	if filters.Limit < 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", filters.Limit)
	}
	if filters.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", filters.Offset)
	}
	if filters.Limit == 0 {
		filters.Limit = DefaultLimit
	}

	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	matched := make([]models.Book, 0, len(books))
	for i := range books {
		if e.matches(&books[i], &filters) {
			matched = append(matched, books[i])
		}
	}

	sortBooks(matched, filters.SortBy)

	total := len(matched)
	start := filters.Offset
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filters.Limit - 1) / filters.Limit
	}

	e.logger.Debug().
		Int("matched", total).
		Int("page_size", end-start).
		Str("sort", filters.SortBy.String()).
		Msg("Search executed")

	page := filters.Offset/filters.Limit + 1

	return &Result{
		Books:          matched[start:end],
		TotalCount:     total,
		Page:           page,
		TotalPages:     totalPages,
		HasMore:        page < totalPages,
		FiltersApplied: filters,
	}, nil
}

// matches reports whether a book satisfies every set filter. Filters on
// optional fields exclude books where the field is absent.
func (e *Engine) matches(b *models.Book, f *Filters) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			return false
		}
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(f.Author)) {
		return false
	}

	if !matchesStatus(b, f) {
		return false
	}
	if !matchesRating(b, f) {
		return false
	}
	if !matchesPages(b, f) {
		return false
	}
	if !matchesDates(b, f) {
		return false
	}
	if !e.matchesTags(b, f) {
		return false
	}
	if !matchesSeries(b, f) {
		return false
	}
	if !matchesPublication(b, f) {
		return false
	}

	if f.HasISBN != nil {
		has := (b.ISBN != nil && *b.ISBN != "") || (b.ISBN13 != nil && *b.ISBN13 != "")
		if has != *f.HasISBN {
			return false
		}
	}
	if f.ReadNext != nil && b.ReadNext != *f.ReadNext {
		return false
	}
	return true
}

func matchesStatus(b *models.Book, f *Filters) bool {
	if f.Status != nil {
		return b.Status == f.Status.String()
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if b.Status == s.String() {
				return true
			}
		}
		return false
	}
	return true
}

func matchesRating(b *models.Book, f *Filters) bool {
	if f.UnratedOnly {
		return b.Rating == nil
	}
	if f.MinRating != nil && (b.Rating == nil || *b.Rating < *f.MinRating) {
		return false
	}
	if f.MaxRating != nil && (b.Rating == nil || *b.Rating > *f.MaxRating) {
		return false
	}
	return true
}

func matchesPages(b *models.Book, f *Filters) bool {
	if f.MinPages != nil && (b.PageCount == nil || *b.PageCount < *f.MinPages) {
		return false
	}
	if f.MaxPages != nil && (b.PageCount == nil || *b.PageCount > *f.MaxPages) {
		return false
	}
	return true
}

// matchesDates compares ISO yyyy-mm-dd strings lexically, which orders
// the same as chronologically.
func matchesDates(b *models.Book, f *Filters) bool {
	if !dateInRange(b.DateAdded, f.AddedAfter, f.AddedBefore) {
		return false
	}
	if !dateInRange(b.DateStarted, f.StartedAfter, f.StartedBefore) {
		return false
	}
	if !dateInRange(b.DateFinished, f.FinishedAfter, f.FinishedBefore) {
		return false
	}
	return true
}

func dateInRange(date *string, after, before string) bool {
	if after == "" && before == "" {
		return true
	}
	if date == nil || *date == "" {
		return false
	}
	if after != "" && *date < after {
		return false
	}
	if before != "" && *date > before {
		return false
	}
	return true
}

func (e *Engine) matchesTags(b *models.Book, f *Filters) bool {
	if len(f.Tags) == 0 {
		return true
	}
	tags, err := b.Tags()
	if err != nil {
		// Malformed tag JSON never matches a tag filter; the integrity
		// checker reports it.
		e.logger.Debug().Str("book_id", b.ID).Err(err).Msg("Skipping book with malformed tags")
		return false
	}
	have := make(map[string]bool, len(tags))
	for _, t := range tags {
		have[strings.ToLower(strings.TrimSpace(t))] = true
	}
	if f.AnyTag {
		for _, want := range f.Tags {
			if have[strings.ToLower(strings.TrimSpace(want))] {
				return true
			}
		}
		return false
	}
	for _, want := range f.Tags {
		if !have[strings.ToLower(strings.TrimSpace(want))] {
			return false
		}
	}
	return true
}

func matchesSeries(b *models.Book, f *Filters) bool {
	inSeries := b.Series != nil && *b.Series != ""
	if f.InSeries != nil && inSeries != *f.InSeries {
		return false
	}
	if f.Series != "" {
		if !inSeries {
			return false
		}
		if !strings.Contains(strings.ToLower(*b.Series), strings.ToLower(f.Series)) {
			return false
		}
	}
	return true
}

func matchesPublication(b *models.Book, f *Filters) bool {
	if f.Publisher != "" {
		if b.Publisher == nil || !strings.Contains(strings.ToLower(*b.Publisher), strings.ToLower(f.Publisher)) {
			return false
		}
	}
	if f.YearPublished != nil && (b.PublicationYear == nil || *b.PublicationYear != *f.YearPublished) {
		return false
	}
	if f.MinYearPublished != nil && (b.PublicationYear == nil || *b.PublicationYear < *f.MinYearPublished) {
		return false
	}
	if f.MaxYearPublished != nil && (b.PublicationYear == nil || *b.PublicationYear > *f.MaxYearPublished) {
		return false
	}
	return true
}

// sortBooks orders books per the requested sort. Ties and absent values
// fall back to ID so results are deterministic; books missing the sort
// key always sort last.
func sortBooks(books []models.Book, order SortOrder) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := &books[i], &books[j]
		if c := compareBooks(a, b, order); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func compareBooks(a, b *models.Book, order SortOrder) int {
	switch order {
	case SortDateAddedDesc:
		return compareStrPtr(a.DateAdded, b.DateAdded, true)
	case SortDateAddedAsc:
		return compareStrPtr(a.DateAdded, b.DateAdded, false)
	case SortTitleAsc:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortTitleDesc:
		return -strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortAuthorAsc:
		return strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
	case SortAuthorDesc:
		return -strings.Compare(strings.ToLower(a.Author), strings.ToLower(b.Author))
	case SortDateFinishedAsc:
		return compareStrPtr(a.DateFinished, b.DateFinished, false)
	case SortDateFinishedDesc:
		return compareStrPtr(a.DateFinished, b.DateFinished, true)
	case SortRatingAsc:
		return compareIntPtr(a.Rating, b.Rating, false)
	case SortRatingDesc:
		return compareIntPtr(a.Rating, b.Rating, true)
	case SortPageCountAsc:
		return compareIntPtr(a.PageCount, b.PageCount, false)
	case SortPageCountDesc:
		return compareIntPtr(a.PageCount, b.PageCount, true)
	case SortSeriesIndexAsc:
		return compareFloatPtr(a.SeriesIndex, b.SeriesIndex)
	default:
		return compareStrPtr(a.DateAdded, b.DateAdded, true)
	}
}

// compareStrPtr orders values per desc, keeping nil values last in
// either direction.
func compareStrPtr(a, b *string, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := strings.Compare(*a, *b)
	if desc {
		return -c
	}
	return c
}

func compareIntPtr(a, b *int, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := 0
	switch {
	case *a < *b:
		c = -1
	case *a > *b:
		c = 1
	}
	if desc {
		return -c
	}
	return c
}

func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
