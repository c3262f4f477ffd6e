// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package similarity

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

type fakeStore struct {
	books []models.Book
}

func (f *fakeStore) ListBooks(_ context.Context) ([]models.Book, error) {
	return f.books, nil
}

func (f *fakeStore) GetBook(_ context.Context, id string) (*models.Book, error) {
	for i := range f.books {
		if f.books[i].ID == id {
			return &f.books[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListReadingLogs(_ context.Context, _ string) ([]models.ReadingLog, error) {
	return nil, nil
}

func (f *fakeStore) UpdateBookFields(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (f *fakeStore) WithTx(_ context.Context, fn func(models.Store) error) error {
	return fn(f)
}

func libraryBooks() []models.Book {
	return []models.Book{
		{
			ID:       "src",
			Title:    "A Wizard of Earthsea",
			Author:   "Ursula K. Le Guin",
			Status:   "completed",
			Rating:   intPtr(5),
			TagsJSON: `["fantasy","classics"]`,
			Series:   strPtr("Earthsea Cycle"),
		},
		{
			ID:       "same-series",
			Title:    "The Tombs of Atuan",
			Author:   "Ursula K. Le Guin",
			Status:   "wishlist",
			TagsJSON: `["fantasy"]`,
			Series:   strPtr("Earthsea Cycle"),
		},
		{
			ID:       "same-genre",
			Title:    "Piranesi",
			Author:   "Susanna Clarke",
			Status:   "wishlist",
			TagsJSON: `["fantasy"]`,
		},
		{
			ID:       "read-match",
			Title:    "The Dispossessed",
			Author:   "Ursula K. Le Guin",
			Status:   "completed",
			Rating:   intPtr(4),
			TagsJSON: `["science fiction","classics"]`,
		},
		{
			ID:       "unrelated",
			Title:    "Salt Fat Acid Heat",
			Author:   "Samin Nosrat",
			Status:   "wishlist",
			TagsJSON: `["cooking"]`,
		},
	}
}

func newTestFinder(books []models.Book) *Finder {
	return NewFinder(&fakeStore{books: books}, DefaultWeights(), zerolog.Nop())
}

// --- Test: FindSimilar ---

func TestFindSimilarUnknownBook(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilar(context.Background(), "missing", Options{})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty result for unknown book, got %d", len(scores))
	}
}

func TestFindSimilarExcludesSourceAndRead(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilar(context.Background(), "src", Options{})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	for _, sc := range scores {
		if sc.Book.ID == "src" {
			t.Error("source book must be excluded")
		}
		if sc.Book.ID == "read-match" {
			t.Error("read books must be excluded by default")
		}
	}
	if len(scores) == 0 {
		t.Fatal("expected at least one similar book")
	}
	if scores[0].Book.ID != "same-series" {
		t.Errorf("expected same-series book first, got %s", scores[0].Book.ID)
	}
}

func TestFindSimilarIncludeRead(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilar(context.Background(), "src", Options{IncludeRead: true})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	found := false
	for _, sc := range scores {
		if sc.Book.ID == "read-match" {
			found = true
		}
	}
	if !found {
		t.Error("IncludeRead should surface already-read matches")
	}
}

func TestFindSimilarOrderingAndLimit(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilar(context.Background(), "src", Options{Limit: 1})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("expected limit 1, got %d", len(scores))
	}
	if scores[0].Book.ID != "same-series" {
		t.Errorf("expected best match first, got %s", scores[0].Book.ID)
	}
}

func TestFindSimilarDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	books := []models.Book{
		{ID: "src", Author: "A Author", Status: "completed", TagsJSON: `["x"]`},
		{ID: "w2", Author: "A Author", Status: "wishlist", TagsJSON: `["x"]`},
		{ID: "w1", Author: "A Author", Status: "wishlist", TagsJSON: `["x"]`},
	}
	f := newTestFinder(books)
	scores, err := f.FindSimilar(context.Background(), "src", Options{})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 results, got %d", len(scores))
	}
	if scores[0].Book.ID != "w1" || scores[1].Book.ID != "w2" {
		t.Errorf("tie-break by ID failed: got %s, %s", scores[0].Book.ID, scores[1].Book.ID)
	}
}

func TestFindSimilarDropsWeakMatches(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilar(context.Background(), "src", Options{})
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	for _, sc := range scores {
		if sc.Book.ID == "unrelated" {
			t.Error("unrelated book should fall under the threshold")
		}
		if sc.TotalScore <= MinThreshold {
			t.Errorf("score %v at or under threshold returned", sc.TotalScore)
		}
	}
}

// --- Test: FindSimilarToFavorites ---

func TestFindSimilarToFavorites(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilarToFavorites(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("FindSimilarToFavorites failed: %v", err)
	}
	if len(scores) == 0 {
		t.Fatal("expected favorites-based matches")
	}
	if scores[0].Book.ID != "same-series" {
		t.Errorf("expected same-series book first, got %s", scores[0].Book.ID)
	}
	for _, sc := range scores {
		if !sc.Book.IsUnread() {
			t.Errorf("favorite matches must be unread, got %s", sc.Book.ID)
		}
	}
}

func TestFindSimilarToFavoritesNoSeeds(t *testing.T) {
	t.Parallel()

	f := newTestFinder(libraryBooks())
	scores, err := f.FindSimilarToFavorites(context.Background(), 9, 10)
	if err != nil {
		t.Fatalf("FindSimilarToFavorites failed: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected empty result without seeds, got %d", len(scores))
	}
}
