// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/shelfmark/shelfmark/internal/integrity"
	"github.com/shelfmark/shelfmark/internal/models"
	"github.com/shelfmark/shelfmark/internal/recommend"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/similarity"
	"github.com/shelfmark/shelfmark/internal/validation"
)

// handleHealth reports liveness and store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListBooks(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "store unavailable", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchRequest carries the validated query parameters of a search.
type searchRequest struct {
	Query     string `validate:"omitempty,max=500"`
	Author    string `validate:"omitempty,max=500"`
	Status    string `validate:"omitempty,bookstatus"`
	MinRating int    `validate:"omitempty,min=1,max=5"`
	MaxRating int    `validate:"omitempty,min=1,max=5"`
	Series    string `validate:"omitempty,max=500"`
	After     string `validate:"omitempty,isodate"`
	Before    string `validate:"omitempty,isodate"`
	Limit     int    `validate:"min=1"`
	Offset    int    `validate:"min=0"`
}

// handleSearch runs a filtered search from query parameters.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := searchRequest{
		Query:     q.Get("q"),
		Author:    q.Get("author"),
		Status:    q.Get("status"),
		MinRating: queryInt(q.Get("min_rating"), 0),
		MaxRating: queryInt(q.Get("max_rating"), 0),
		Series:    q.Get("series"),
		After:     q.Get("added_after"),
		Before:    q.Get("added_before"),
		Limit:     queryInt(q.Get("limit"), s.cfg.DefaultPageSize),
		Offset:    queryInt(q.Get("offset"), 0),
	}
	if req.Limit > s.cfg.MaxPageSize {
		req.Limit = s.cfg.MaxPageSize
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondError(w, http.StatusBadRequest, verr.Error(), verr.Fields)
		return
	}

	filters := search.Filters{
		Query:       req.Query,
		Author:      req.Author,
		AddedAfter:  req.After,
		AddedBefore: req.Before,
		Series:      req.Series,
		SortBy:      search.ParseSortOrder(q.Get("sort")),
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	if req.Status != "" {
		status, err := models.ParseStatus(req.Status)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		filters.Status = &status
	}
	if req.MinRating > 0 {
		filters.MinRating = &req.MinRating
	}
	if req.MaxRating > 0 {
		filters.MaxRating = &req.MaxRating
	}
	if tags := q.Get("tags"); tags != "" {
		filters.Tags = splitCSV(tags)
		filters.AnyTag = q.Get("any_tag") == "true"
	}
	if rn := q.Get("read_next"); rn != "" {
		v := rn == "true"
		filters.ReadNext = &v
	}

	result, err := s.search.Search(r.Context(), filters)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// similarRequest carries the validated parameters of a similarity query.
type similarRequest struct {
	Limit    int     `validate:"min=1,max=100"`
	MinScore float64 `validate:"min=0,max=1"`
}

// handleSimilar finds books similar to the one in the path.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	q := r.URL.Query()

	req := similarRequest{
		Limit:    queryInt(q.Get("limit"), similarity.DefaultLimit),
		MinScore: queryFloat(q.Get("min_score"), s.disc.SimilarityThreshold),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondError(w, http.StatusBadRequest, verr.Error(), verr.Fields)
		return
	}

	scores, err := s.finder.FindSimilar(r.Context(), bookID, similarity.Options{
		Limit:       req.Limit,
		MinScore:    req.MinScore,
		IncludeRead: q.Get("include_read") == "true",
	})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "similarity query failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"book_id": bookID,
		"similar": scores,
	})
}

// handleRecommendations returns the merged recommendation list, or a
// single strategy when ?type= is given.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), s.disc.RecommendationLimit)
	if limit < 1 || limit > 100 {
		s.respondError(w, http.StatusBadRequest, "limit must be between 1 and 100", nil)
		return
	}

	var (
		recs []recommend.Recommendation
		err  error
	)
	if raw := q.Get("type"); raw != "" {
		t, ok := recommend.ParseType(raw)
		if !ok {
			s.respondError(w, http.StatusBadRequest, "unknown recommendation type "+strconv.Quote(raw), nil)
			return
		}
		recs, err = s.recommend.ByType(r.Context(), t, limit)
	} else {
		recs, err = s.recommend.Recommendations(r.Context(), limit)
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "recommendation query failed", nil)
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// handleWhatToReadNext returns the single top pick.
func (s *Server) handleWhatToReadNext(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recommend.WhatToReadNext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "recommendation query failed", nil)
		return
	}
	if rec == nil {
		s.respondJSON(w, http.StatusOK, map[string]any{"recommendation": nil})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"recommendation": rec})
}

// handleIntegrity scans the whole library.
func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := s.checker.CheckAll(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "integrity scan failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// handleIntegrityBook scans one book.
func (s *Server) handleIntegrityBook(w http.ResponseWriter, r *http.Request) {
	report, err := s.checker.CheckBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "integrity scan failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// fixRequest is the body of a repair call.
type fixRequest struct {
	Issues []integrity.Issue `json:"issues" validate:"required,min=1"`
	DryRun bool              `json:"dry_run"`
}

// handleIntegrityFix repairs the submitted issues.
func (s *Server) handleIntegrityFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		s.respondError(w, http.StatusBadRequest, verr.Error(), verr.Fields)
		return
	}

	result, err := s.checker.FixIssues(r.Context(), req.Issues, req.DryRun)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "repair failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleAuthorStats returns the per-author ranking.
func (s *Server) handleAuthorStats(w http.ResponseWriter, r *http.Request) {
	authorStats, err := s.stats.AuthorStats(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "stats query failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"authors": authorStats})
}

// handleInsights returns the library summary.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.stats.Insights(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "stats query failed", nil)
		return
	}
	s.respondJSON(w, http.StatusOK, insights)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
