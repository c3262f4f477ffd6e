// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package similarity

import (
	"fmt"
	"math"
	"strings"

	"github.com/shelfmark/shelfmark/internal/models"
)

// MinThreshold is the score below which a candidate is not considered
// similar at all. Scores at or under it are dropped from results.
const MinThreshold = 0.1

// Scorer computes pairwise similarity scores between books.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights. Invalid weights
// fall back to DefaultWeights.
func NewScorer(weights Weights) *Scorer {
	if err := weights.Validate(); err != nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// ScoreBooks scores how similar candidate is to source. The result
// includes the per-dimension breakdown and match reasons.
func (s *Scorer) ScoreBooks(source, candidate *models.Book) Score {
	sc := Score{
		Book:        *candidate,
		AuthorScore: authorScore(source.Author, candidate.Author),
		GenreScore:  genreScore(source, candidate),
		SeriesScore: seriesScore(source, candidate),
		LengthScore: lengthScore(source.PageCount, candidate.PageCount),
		EraScore:    eraScore(source.PublicationYear, candidate.PublicationYear),
		RatingScore: ratingScore(source.Rating, candidate.Rating),
	}

	sc.TotalScore = s.weights.Author*sc.AuthorScore +
		s.weights.Genre*sc.GenreScore +
		s.weights.Series*sc.SeriesScore +
		s.weights.Length*sc.LengthScore +
		s.weights.Era*sc.EraScore +
		s.weights.Rating*sc.RatingScore

	if sc.TotalScore > MinThreshold {
		sc.MatchReasons = matchReasons(source, &sc)
	}
	return sc
}

// authorScore is 1.0 for a case-insensitive exact match, 0.5 when the
// two names share any significant word (surname overlap), else 0.
func authorScore(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	aw := significantWords(a)
	bw := significantWords(b)
	for w := range aw {
		if bw[w] {
			return 0.5
		}
	}
	return 0
}

// significantWords splits a name into words of three or more letters,
// so initials and particles do not produce spurious overlaps.
func significantWords(name string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(name) {
		w = strings.Trim(w, ".,")
		if len(w) >= 3 {
			words[w] = true
		}
	}
	return words
}

// genreScore is the tag overlap divided by the larger tag set. Books
// with malformed or empty tags score 0.
func genreScore(source, candidate *models.Book) float64 {
	st, err := source.Tags()
	if err != nil || len(st) == 0 {
		return 0
	}
	ct, err := candidate.Tags()
	if err != nil || len(ct) == 0 {
		return 0
	}
	have := make(map[string]bool, len(st))
	for _, t := range st {
		have[normalizeTag(t)] = true
	}
	overlap := 0
	seen := make(map[string]bool, len(ct))
	for _, t := range ct {
		n := normalizeTag(t)
		if have[n] && !seen[n] {
			overlap++
			seen[n] = true
		}
	}
	larger := len(have)
	if len(ct) > larger {
		larger = len(ct)
	}
	return float64(overlap) / float64(larger)
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// seriesScore is 1.0 when both books name the same non-empty series.
func seriesScore(source, candidate *models.Book) float64 {
	if source.Series == nil || candidate.Series == nil {
		return 0
	}
	a := strings.ToLower(strings.TrimSpace(*source.Series))
	b := strings.ToLower(strings.TrimSpace(*candidate.Series))
	if a == "" || a != b {
		return 0
	}
	return 1.0
}

// lengthScore compares page counts: identical lengths score 1.0,
// falling off linearly with the relative difference.
func lengthScore(a, b *int) float64 {
	if a == nil || b == nil || *a <= 0 || *b <= 0 {
		return 0
	}
	longer := *a
	if *b > longer {
		longer = *b
	}
	diff := math.Abs(float64(*a - *b))
	return 1.0 - diff/float64(longer)
}

// eraScore compares publication years on a 50-year horizon.
func eraScore(a, b *int) float64 {
	if a == nil || b == nil {
		return 0
	}
	diff := math.Abs(float64(*a - *b))
	score := 1.0 - diff/50.0
	if score < 0 {
		return 0
	}
	return score
}

// ratingScore compares reader ratings on the 1-5 scale.
func ratingScore(a, b *int) float64 {
	if a == nil || b == nil {
		return 0
	}
	return 1.0 - math.Abs(float64(*a-*b))/4.0
}

// matchReasons builds explanations for the dimensions that matched.
func matchReasons(source *models.Book, sc *Score) []string {
	var reasons []string
	switch {
	case sc.AuthorScore >= 1.0:
		reasons = append(reasons, fmt.Sprintf("Same author: %s", sc.Book.Author))
	case sc.AuthorScore >= 0.5:
		reasons = append(reasons, "Related author")
	}
	if sc.SeriesScore >= 1.0 && sc.Book.Series != nil {
		reasons = append(reasons, fmt.Sprintf("Same series: %s", *sc.Book.Series))
	}
	if sc.GenreScore > 0 {
		if shared := sharedTags(source, &sc.Book); len(shared) > 0 {
			reasons = append(reasons, fmt.Sprintf("Shared genres: %s", strings.Join(shared, ", ")))
		}
	}
	if sc.LengthScore >= 0.8 {
		reasons = append(reasons, "Similar length")
	}
	if sc.EraScore >= 0.8 {
		reasons = append(reasons, "Same era")
	}
	if sc.RatingScore >= 0.75 && source.Rating != nil {
		reasons = append(reasons, "You rated both similarly")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Broadly similar profile")
	}
	return reasons
}

func sharedTags(a, b *models.Book) []string {
	at, err := a.Tags()
	if err != nil {
		return nil
	}
	bt, err := b.Tags()
	if err != nil {
		return nil
	}
	have := make(map[string]string, len(at))
	for _, t := range at {
		have[normalizeTag(t)] = strings.TrimSpace(t)
	}
	var shared []string
	seen := make(map[string]bool)
	for _, t := range bt {
		n := normalizeTag(t)
		if orig, ok := have[n]; ok && !seen[n] {
			shared = append(shared, orig)
			seen[n] = true
		}
	}
	return shared
}
