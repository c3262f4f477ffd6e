// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// Strategy scores. Each strategy anchors its recommendations at a
// fixed level so the merged list ranks explicit queues above inferred
// suggestions.
const (
	scoreReadNext      = 1.0
	scoreBySeries      = 0.9
	scoreByAuthorBase  = 0.78
	scoreByAuthorSpan  = 0.07
	scoreByGenreBase   = 0.68
	scoreByGenreSpan   = 0.07
	scoreHighlyRated   = 0.6
	scoreByLength      = 0.5
	scoreQuickRead     = 0.4
	scoreRecentlyAdded = 0.35
	scoreLongAwaited   = 0.3
)

// DefaultLimit caps merged recommendation lists when no limit is given.
const DefaultLimit = 10

// perStrategyLimit caps how many books a single strategy contributes
// before merging.
const perStrategyLimit = 5

// Engine generates recommendations from the reading history.
type Engine struct {
	store  models.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a recommendation engine over the given store.
func NewEngine(store models.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}
}

// library is one snapshot of the shelf, split the way the strategies
// consume it.
type library struct {
	all       []models.Book
	unread    []models.Book
	completed []models.Book
}

func (e *Engine) loadLibrary(ctx context.Context) (*library, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	lib := &library{all: books}
	for _, b := range books {
		switch {
		case b.IsUnread():
			lib.unread = append(lib.unread, b)
		case b.Status == models.StatusCompleted.String():
			lib.completed = append(lib.completed, b)
		}
	}
	return lib, nil
}

// Recommendations merges every strategy into a single ranked list.
// Each book appears at most once, keeping its highest score. The list
// is deterministic for an unchanged data set.
func (e *Engine) Recommendations(ctx context.Context, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	lib, err := e.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}

	best := make(map[string]Recommendation)
	for _, t := range AllTypes() {
		for _, rec := range e.runStrategy(lib, t, perStrategyLimit) {
			if prev, ok := best[rec.Book.ID]; !ok || rec.Score > prev.Score {
				best[rec.Book.ID] = rec
			}
		}
	}

	recs := make([]Recommendation, 0, len(best))
	for _, rec := range best {
		recs = append(recs, rec)
	}
	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	e.logger.Debug().Int("count", len(recs)).Msg("Recommendations generated")
	return recs, nil
}

// ByType runs a single strategy.
func (e *Engine) ByType(ctx context.Context, t Type, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	lib, err := e.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}
	recs := e.runStrategy(lib, t, limit)
	sortRecommendations(recs)
	return recs, nil
}

// WhatToReadNext returns the single top recommendation, or nil when
// the unread shelf is empty.
func (e *Engine) WhatToReadNext(ctx context.Context) (*Recommendation, error) {
	recs, err := e.Recommendations(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (e *Engine) runStrategy(lib *library, t Type, limit int) []Recommendation {
	var recs []Recommendation
	switch t {
	case TypeReadNext:
		recs = e.readNext(lib)
	case TypeBySeries:
		recs = e.bySeries(lib)
	case TypeByAuthor:
		recs = e.byAuthor(lib)
	case TypeByGenre:
		recs = e.byGenre(lib)
	case TypeHighlyRated:
		recs = e.highlyRated(lib)
	case TypeByLength:
		recs = e.byLength(lib)
	case TypeQuickRead:
		recs = e.quickRead(lib)
	case TypeRecentlyAdded:
		recs = e.recentlyAdded(lib)
	case TypeLongAwaited:
		recs = e.longAwaited(lib)
	}
	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// readNext surfaces unread books the reader flagged to read next.
func (e *Engine) readNext(lib *library) []Recommendation {
	var recs []Recommendation
	for _, b := range lib.unread {
		if !b.ReadNext {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeReadNext,
			Reason: "You flagged this to read next",
			Score:  scoreReadNext,
		})
	}
	return recs
}

// bySeries finds, per series with at least one completed entry, the
// unread book with the lowest series index above the highest completed
// index.
func (e *Engine) bySeries(lib *library) []Recommendation {
	highest := make(map[string]float64)
	seriesName := make(map[string]string)
	for _, b := range lib.completed {
		if b.Series == nil || *b.Series == "" || b.SeriesIndex == nil {
			continue
		}
		key := normalizeKey(*b.Series)
		if idx, ok := highest[key]; !ok || *b.SeriesIndex > idx {
			highest[key] = *b.SeriesIndex
			seriesName[key] = *b.Series
		}
	}

	next := make(map[string]*models.Book)
	for i := range lib.unread {
		b := &lib.unread[i]
		if b.Series == nil || *b.Series == "" || b.SeriesIndex == nil {
			continue
		}
		key := normalizeKey(*b.Series)
		done, ok := highest[key]
		if !ok || *b.SeriesIndex <= done {
			continue
		}
		if cur, ok := next[key]; !ok || *b.SeriesIndex < *cur.SeriesIndex ||
			(*b.SeriesIndex == *cur.SeriesIndex && b.ID < cur.ID) {
			next[key] = b
		}
	}

	var recs []Recommendation
	for key, b := range next {
		recs = append(recs, Recommendation{
			Book:   *b,
			Type:   TypeBySeries,
			Reason: fmt.Sprintf("Next in the %s series", seriesName[key]),
			Score:  scoreBySeries,
			Metadata: map[string]any{
				"series":       seriesName[key],
				"series_index": *b.SeriesIndex,
			},
		})
	}
	return recs
}

// byAuthor ranks completed authors by read count and average rating,
// then surfaces unread books by the strongest ones.
func (e *Engine) byAuthor(lib *library) []Recommendation {
	type authorStat struct {
		count     int
		ratingSum int
		rated     int
	}
	stats := make(map[string]*authorStat)
	display := make(map[string]string)
	maxCount := 0
	for _, b := range lib.completed {
		key := normalizeKey(b.Author)
		if key == "" {
			continue
		}
		st := stats[key]
		if st == nil {
			st = &authorStat{}
			stats[key] = st
			display[key] = b.Author
		}
		st.count++
		if st.count > maxCount {
			maxCount = st.count
		}
		if b.Rating != nil {
			st.ratingSum += *b.Rating
			st.rated++
		}
	}
	if maxCount == 0 {
		return nil
	}

	// Blend how much was read with how well it was liked.
	affinity := make(map[string]float64, len(stats))
	for key, st := range stats {
		countPart := float64(st.count) / float64(maxCount)
		ratingPart := 0.0
		if st.rated > 0 {
			ratingPart = float64(st.ratingSum) / float64(st.rated) / 5.0
		}
		affinity[key] = countPart*0.5 + ratingPart*0.5
	}

	var recs []Recommendation
	for _, b := range lib.unread {
		key := normalizeKey(b.Author)
		score, ok := affinity[key]
		if !ok || score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeByAuthor,
			Reason: fmt.Sprintf("More by %s", display[key]),
			Score:  scoreByAuthorBase + scoreByAuthorSpan*score,
			Metadata: map[string]any{
				"author": display[key],
			},
		})
	}
	return recs
}

// byGenre ranks the tags of completed books by frequency and average
// rating, then surfaces unread books carrying the strongest tags.
func (e *Engine) byGenre(lib *library) []Recommendation {
	type tagStat struct {
		count     int
		ratingSum int
		rated     int
	}
	stats := make(map[string]*tagStat)
	display := make(map[string]string)
	maxCount := 0
	for _, b := range lib.completed {
		tags, err := b.Tags()
		if err != nil {
			continue
		}
		for _, t := range tags {
			key := normalizeKey(t)
			if key == "" {
				continue
			}
			st := stats[key]
			if st == nil {
				st = &tagStat{}
				stats[key] = st
				display[key] = t
			}
			st.count++
			if st.count > maxCount {
				maxCount = st.count
			}
			if b.Rating != nil {
				st.ratingSum += *b.Rating
				st.rated++
			}
		}
	}
	if maxCount == 0 {
		return nil
	}

	affinity := make(map[string]float64, len(stats))
	for key, st := range stats {
		countPart := float64(st.count) / float64(maxCount)
		ratingPart := 0.0
		if st.rated > 0 {
			ratingPart = float64(st.ratingSum) / float64(st.rated) / 5.0
		}
		affinity[key] = countPart*0.4 + ratingPart*0.6
	}

	var recs []Recommendation
	for _, b := range lib.unread {
		tags, err := b.Tags()
		if err != nil {
			continue
		}
		bestTag := ""
		bestScore := 0.0
		for _, t := range tags {
			if s, ok := affinity[normalizeKey(t)]; ok && s > bestScore {
				bestScore = s
				bestTag = normalizeKey(t)
			}
		}
		if bestTag == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeByGenre,
			Reason: fmt.Sprintf("You enjoy %s books", display[bestTag]),
			Score:  scoreByGenreBase + scoreByGenreSpan*bestScore,
			Metadata: map[string]any{
				"genre": display[bestTag],
			},
		})
	}
	return recs
}

// highlyRated surfaces unread books with a community rating of 4.0+.
func (e *Engine) highlyRated(lib *library) []Recommendation {
	var recs []Recommendation
	for _, b := range lib.unread {
		if b.GoodreadsAvgRating == nil || *b.GoodreadsAvgRating < 4.0 {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeHighlyRated,
			Reason: fmt.Sprintf("Rated %.1f by other readers", *b.GoodreadsAvgRating),
			Score:  scoreHighlyRated,
			Metadata: map[string]any{
				"avg_rating": *b.GoodreadsAvgRating,
			},
		})
	}
	return recs
}

// recentWindow is how far back byLength looks for finished books.
const recentWindow = 90 * 24 * time.Hour

// minRecentReads is how many recent completions byLength needs before
// it trusts the average.
const minRecentReads = 3

// byLength surfaces unread books within 30% of the reader's recent
// average book length.
func (e *Engine) byLength(lib *library) []Recommendation {
	cutoff := e.now().Add(-recentWindow).Format(models.ISODate)
	sum, n := 0, 0
	for _, b := range lib.completed {
		if b.DateFinished == nil || *b.DateFinished < cutoff {
			continue
		}
		if b.PageCount == nil || *b.PageCount <= 0 {
			continue
		}
		sum += *b.PageCount
		n++
	}
	if n < minRecentReads {
		return nil
	}
	avg := float64(sum) / float64(n)
	lo := avg * 0.7
	hi := avg * 1.3

	var recs []Recommendation
	for _, b := range lib.unread {
		if b.PageCount == nil {
			continue
		}
		pages := float64(*b.PageCount)
		if pages < lo || pages > hi {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeByLength,
			Reason: fmt.Sprintf("Matches your recent pace of ~%d pages", int(avg)),
			Score:  scoreByLength,
			Metadata: map[string]any{
				"avg_pages": int(avg),
			},
		})
	}
	return recs
}

// quickRead surfaces short unread books, 50 to 200 pages.
func (e *Engine) quickRead(lib *library) []Recommendation {
	var recs []Recommendation
	for _, b := range lib.unread {
		if b.PageCount == nil || *b.PageCount < 50 || *b.PageCount > 200 {
			continue
		}
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeQuickRead,
			Reason: fmt.Sprintf("A quick read at %d pages", *b.PageCount),
			Score:  scoreQuickRead,
		})
	}
	return recs
}

// recentlyAdded surfaces the newest unread additions.
func (e *Engine) recentlyAdded(lib *library) []Recommendation {
	dated := datedUnread(lib)
	sort.SliceStable(dated, func(i, j int) bool {
		if *dated[i].DateAdded != *dated[j].DateAdded {
			return *dated[i].DateAdded > *dated[j].DateAdded
		}
		return dated[i].ID < dated[j].ID
	})

	var recs []Recommendation
	for _, b := range dated {
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeRecentlyAdded,
			Reason: "Recently added to your shelf",
			Score:  scoreRecentlyAdded,
		})
	}
	return recs
}

// longAwaited surfaces the unread books that have waited longest.
func (e *Engine) longAwaited(lib *library) []Recommendation {
	dated := datedUnread(lib)
	sort.SliceStable(dated, func(i, j int) bool {
		if *dated[i].DateAdded != *dated[j].DateAdded {
			return *dated[i].DateAdded < *dated[j].DateAdded
		}
		return dated[i].ID < dated[j].ID
	})

	var recs []Recommendation
	for _, b := range dated {
		recs = append(recs, Recommendation{
			Book:   b,
			Type:   TypeLongAwaited,
			Reason: fmt.Sprintf("On your shelf since %s", *b.DateAdded),
			Score:  scoreLongAwaited,
		})
	}
	return recs
}

func datedUnread(lib *library) []models.Book {
	var dated []models.Book
	for _, b := range lib.unread {
		if b.DateAdded != nil && *b.DateAdded != "" {
			dated = append(dated, b)
		}
	}
	return dated
}

// sortRecommendations orders by score descending, book ID breaking ties.
func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Book.ID < recs[j].Book.ID
	})
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
