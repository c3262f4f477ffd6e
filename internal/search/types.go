// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package search provides multi-criteria filtering, sorting and pagination
// over the book library. All filtering happens in memory over a single
// snapshot read from the store, so a page is internally consistent even
// when the store changes between calls.
package search

import (
	"github.com/shelfmark/shelfmark/internal/models"
)

// SortOrder selects the result ordering.
type SortOrder int

const (
	// SortDateAddedDesc is the default: newest additions first.
	SortDateAddedDesc SortOrder = iota
	// SortDateAddedAsc lists oldest additions first.
	SortDateAddedAsc
	// SortTitleAsc sorts by title A-Z.
	SortTitleAsc
	// SortTitleDesc sorts by title Z-A.
	SortTitleDesc
	// SortAuthorAsc sorts by author A-Z.
	SortAuthorAsc
	// SortAuthorDesc sorts by author Z-A.
	SortAuthorDesc
	// SortDateFinishedAsc lists earliest finished first.
	SortDateFinishedAsc
	// SortDateFinishedDesc lists latest finished first.
	SortDateFinishedDesc
	// SortRatingAsc lists lowest rated first.
	SortRatingAsc
	// SortRatingDesc lists highest rated first.
	SortRatingDesc
	// SortPageCountAsc lists shortest first.
	SortPageCountAsc
	// SortPageCountDesc lists longest first.
	SortPageCountDesc
	// SortSeriesIndexAsc lists by series position, nulls last.
	SortSeriesIndexAsc
)

// String returns a stable name for the sort order.
func (s SortOrder) String() string {
	switch s {
	case SortDateAddedDesc:
		return "date_added_desc"
	case SortDateAddedAsc:
		return "date_added_asc"
	case SortTitleAsc:
		return "title_asc"
	case SortTitleDesc:
		return "title_desc"
	case SortAuthorAsc:
		return "author_asc"
	case SortAuthorDesc:
		return "author_desc"
	case SortDateFinishedAsc:
		return "date_finished_asc"
	case SortDateFinishedDesc:
		return "date_finished_desc"
	case SortRatingAsc:
		return "rating_asc"
	case SortRatingDesc:
		return "rating_desc"
	case SortPageCountAsc:
		return "page_count_asc"
	case SortPageCountDesc:
		return "page_count_desc"
	case SortSeriesIndexAsc:
		return "series_index_asc"
	default:
		return "unknown"
	}
}

// ParseSortOrder maps a stable name back to a SortOrder.
// Unknown names fall back to the default ordering.
func ParseSortOrder(raw string) SortOrder {
	switch raw {
	case "date_added_asc":
		return SortDateAddedAsc
	case "title_asc":
		return SortTitleAsc
	case "title_desc":
		return SortTitleDesc
	case "author_asc":
		return SortAuthorAsc
	case "author_desc":
		return SortAuthorDesc
	case "date_finished_asc":
		return SortDateFinishedAsc
	case "date_finished_desc":
		return SortDateFinishedDesc
	case "rating_asc":
		return SortRatingAsc
	case "rating_desc":
		return SortRatingDesc
	case "page_count_asc":
		return SortPageCountAsc
	case "page_count_desc":
		return SortPageCountDesc
	case "series_index_asc":
		return SortSeriesIndexAsc
	default:
		return SortDateAddedDesc
	}
}

// Filters is the search filter specification. Every field is optional;
// an unset field imposes no constraint.
type Filters struct {
	// Query matches title or author, case-insensitive substring.
	Query string `json:"query,omitempty"`

	// Title and Author are case-insensitive substring matches against
	// their respective fields.
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`

	// Status restricts to a single status; Statuses to any of a set.
	// Status wins when both are set.
	Status   *models.BookStatus  `json:"status,omitempty"`
	Statuses []models.BookStatus `json:"statuses,omitempty"`

	// Rating bounds, inclusive. UnratedOnly selects books with no rating.
	MinRating   *int `json:"min_rating,omitempty"`
	MaxRating   *int `json:"max_rating,omitempty"`
	UnratedOnly bool `json:"unrated_only,omitempty"`

	// Page count bounds, inclusive.
	MinPages *int `json:"min_pages,omitempty"`
	MaxPages *int `json:"max_pages,omitempty"`

	// ISO date bounds on date_added, date_started, date_finished.
	AddedAfter     string `json:"added_after,omitempty"`
	AddedBefore    string `json:"added_before,omitempty"`
	StartedAfter   string `json:"started_after,omitempty"`
	StartedBefore  string `json:"started_before,omitempty"`
	FinishedAfter  string `json:"finished_after,omitempty"`
	FinishedBefore string `json:"finished_before,omitempty"`

	// Tags to match, case-insensitive. AnyTag true means OR semantics
	// across tags, false means AND.
	Tags   []string `json:"tags,omitempty"`
	AnyTag bool     `json:"any_tag,omitempty"`

	// Series is a case-insensitive substring match on the series name.
	// InSeries selects books that belong (or do not belong) to any series.
	Series   string `json:"series,omitempty"`
	InSeries *bool  `json:"in_series,omitempty"`

	// Publisher is a case-insensitive substring match.
	Publisher string `json:"publisher,omitempty"`

	// Publication year constraints.
	YearPublished    *int `json:"year_published,omitempty"`
	MinYearPublished *int `json:"min_year_published,omitempty"`
	MaxYearPublished *int `json:"max_year_published,omitempty"`

	// HasISBN selects books with (or without) any ISBN.
	HasISBN *bool `json:"has_isbn,omitempty"`

	// ReadNext selects books by their read-next flag.
	ReadNext *bool `json:"read_next,omitempty"`

	// SortBy orders the result set.
	SortBy SortOrder `json:"sort_by,omitempty"`

	// Limit and Offset paginate. Limit defaults to DefaultLimit when 0.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultLimit is the page size applied when Filters.Limit is zero.
const DefaultLimit = 50

// Result is a page of matching books with pagination metadata.
type Result struct {
	// Books is the page of matches, ordered per SortBy.
	Books []models.Book `json:"books"`

	// TotalCount counts the full filtered set, not just this page.
	TotalCount int `json:"total_count"`

	// Page is 1-based: offset/limit + 1.
	Page int `json:"page"`

	// TotalPages is ceil(TotalCount/limit); 0 for an empty result set.
	TotalPages int `json:"total_pages"`

	// HasMore reports whether pages beyond this one exist.
	HasMore bool `json:"has_more"`

	// FiltersApplied echoes the filter specification that produced
	// this result.
	FiltersApplied Filters `json:"filters_applied"`
}
