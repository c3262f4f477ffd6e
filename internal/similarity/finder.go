// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// Finder locates the books most similar to a source book.
type Finder struct {
	store  models.Store
	scorer *Scorer
	logger zerolog.Logger
}

// NewFinder creates a finder over the given store and weights.
func NewFinder(store models.Store, weights Weights, logger zerolog.Logger) *Finder {
	return &Finder{
		store:  store,
		scorer: NewScorer(weights),
		logger: logger.With().Str("component", "similarity").Logger(),
	}
}

// Scorer exposes the underlying pairwise scorer.
func (f *Finder) Scorer() *Scorer {
	return f.scorer
}

// FindSimilar returns the books most similar to the given book, best
// first. An unknown book ID yields an empty result, not an error. The
// source book is never included. By default only unread candidates are
// considered; Options.IncludeRead widens the pool to the whole library.
func (f *Finder) FindSimilar(ctx context.Context, bookID string, opts Options) ([]Score, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.MinScore <= 0 {
		opts.MinScore = MinThreshold
	}

	source, err := f.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source book: %w", err)
	}
	if source == nil {
		f.logger.Debug().Str("book_id", bookID).Msg("Similar query for unknown book")
		return []Score{}, nil
	}

	books, err := f.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	scores := make([]Score, 0, len(books))
	for i := range books {
		c := &books[i]
		if c.ID == source.ID {
			continue
		}
		if !opts.IncludeRead && !c.IsUnread() {
			continue
		}
		sc := f.scorer.ScoreBooks(source, c)
		if sc.TotalScore <= opts.MinScore {
			continue
		}
		scores = append(scores, sc)
	}

	sortScores(scores)
	if len(scores) > opts.Limit {
		scores = scores[:opts.Limit]
	}

	f.logger.Debug().
		Str("book_id", bookID).
		Int("results", len(scores)).
		Msg("Similar books computed")
	return scores, nil
}

// FindSimilarToFavorites finds unread books similar to the reader's
// favourites: completed books rated at or above minRating. Each
// candidate keeps its single best score across the favourites. No
// favourites means an empty result.
func (f *Finder) FindSimilarToFavorites(ctx context.Context, minRating, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	books, err := f.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	var seeds []*models.Book
	for i := range books {
		b := &books[i]
		if b.Status == models.StatusCompleted.String() && b.Rating != nil && *b.Rating >= minRating {
			seeds = append(seeds, b)
		}
	}
	if len(seeds) == 0 {
		return []Score{}, nil
	}

	best := make(map[string]Score)
	for i := range books {
		c := &books[i]
		if !c.IsUnread() {
			continue
		}
		for _, seed := range seeds {
			sc := f.scorer.ScoreBooks(seed, c)
			if sc.TotalScore <= MinThreshold {
				continue
			}
			if prev, ok := best[c.ID]; !ok || sc.TotalScore > prev.TotalScore {
				best[c.ID] = sc
			}
		}
	}

	scores := make([]Score, 0, len(best))
	for _, sc := range best {
		scores = append(scores, sc)
	}
	sortScores(scores)
	if len(scores) > limit {
		scores = scores[:limit]
	}

	f.logger.Debug().
		Int("seeds", len(seeds)).
		Int("results", len(scores)).
		Msg("Favorites-based similarity computed")
	return scores, nil
}

// sortScores orders best score first, book ID breaking ties.
func sortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		return scores[i].Book.ID < scores[j].Book.ID
	})
}
