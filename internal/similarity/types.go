// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package similarity scores how alike two books are across author,
// tags, series, length, publication era and reader rating, and finds
// the closest neighbours of a book in the library.
package similarity

import (
	"fmt"

	"github.com/shelfmark/shelfmark/internal/models"
)

// Weights controls the contribution of each similarity dimension.
// Weights must sum to 1.0 so composite scores stay in [0, 1].
type Weights struct {
	Author float64 `json:"author" koanf:"author"`
	Genre  float64 `json:"genre"  koanf:"genre"`
	Series float64 `json:"series" koanf:"series"`
	Length float64 `json:"length" koanf:"length"`
	Era    float64 `json:"era"    koanf:"era"`
	Rating float64 `json:"rating" koanf:"rating"`
}

// DefaultWeights returns the standard weighting, favouring shared
// authors and genres over circumstantial matches.
func DefaultWeights() Weights {
	return Weights{
		Author: 0.30,
		Genre:  0.25,
		Series: 0.20,
		Length: 0.10,
		Era:    0.08,
		Rating: 0.07,
	}
}

// Validate checks that the weights are non-negative and sum to 1.0
// within a small tolerance.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"author": w.Author,
		"genre":  w.Genre,
		"series": w.Series,
		"length": w.Length,
		"era":    w.Era,
		"rating": w.Rating,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	sum := w.Author + w.Genre + w.Series + w.Length + w.Era + w.Rating
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Score is the similarity of a candidate book to a source book, with
// the per-dimension breakdown that produced it.
type Score struct {
	// Book is the candidate being compared to the source.
	Book models.Book `json:"book"`

	// TotalScore is the weighted sum of the dimension scores, in [0, 1].
	TotalScore float64 `json:"total_score"`

	// Per-dimension scores, each in [0, 1].
	AuthorScore float64 `json:"author_score"`
	GenreScore  float64 `json:"genre_score"`
	SeriesScore float64 `json:"series_score"`
	LengthScore float64 `json:"length_score"`
	EraScore    float64 `json:"era_score"`
	RatingScore float64 `json:"rating_score"`

	// MatchReasons are human-readable explanations of the strongest
	// matching dimensions. Non-empty for any score above the reporting
	// threshold.
	MatchReasons []string `json:"match_reasons"`
}

// Options tunes a FindSimilar query.
type Options struct {
	// Limit caps the number of results. Zero means DefaultLimit.
	Limit int

	// MinScore drops candidates scoring below the threshold.
	MinScore float64

	// IncludeRead keeps already-read books in the results. By default
	// only unread books (wishlist, on hold) are returned.
	IncludeRead bool
}

// DefaultLimit is the result cap applied when Options.Limit is zero.
const DefaultLimit = 10
