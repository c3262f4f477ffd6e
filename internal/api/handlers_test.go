// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/integrity"
	"github.com/shelfmark/shelfmark/internal/models"
	"github.com/shelfmark/shelfmark/internal/recommend"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/similarity"
	"github.com/shelfmark/shelfmark/internal/stats"
)

type fakeStore struct {
	books []models.Book
	logs  []models.ReadingLog
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

func (f *fakeStore) ListReadingLogs(_ context.Context, bookID string) ([]models.ReadingLog, error) {
	if bookID == "" {
		return f.logs, nil
	}
	var out []models.ReadingLog
	for _, l := range f.logs {
		if l.BookID == bookID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateBookFields(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (f *fakeStore) WithTx(_ context.Context, fn func(models.Store) error) error {
	return fn(f)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            3850,
		Timeout:         10 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
		CORSOrigins:     []string{"*"},
		DefaultPageSize: 50,
		MaxPageSize:     200,
	}
}

func testDiscoveryConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		SimilarityThreshold: 0.1,
		RecommendationLimit: 10,
		Weights:             similarity.DefaultWeights(),
	}
}

func newTestServer(store *fakeStore) *Server {
	return newTestServerWithDiscovery(store, testDiscoveryConfig())
}

func newTestServerWithDiscovery(store *fakeStore, disc config.DiscoveryConfig) *Server {
	logger := zerolog.Nop()
	return NewServer(
		testServerConfig(),
		disc,
		store,
		search.NewEngine(store, logger),
		similarity.NewFinder(store, disc.Weights, logger),
		recommend.NewEngine(store, logger),
		integrity.NewChecker(store, logger),
		stats.NewAggregator(store, logger),
		logger,
	)
}

func testStore() *fakeStore {
	return &fakeStore{
		books: []models.Book{
			{
				ID:        "b1",
				Title:     "A Wizard of Earthsea",
				Author:    "Ursula K. Le Guin",
				Status:    "completed",
				Rating:    intPtr(5),
				TagsJSON:  `["fantasy"]`,
				Series:    strPtr("Earthsea Cycle"),
				DateAdded: strPtr("2025-01-01"),
			},
			{
				ID:        "b2",
				Title:     "The Tombs of Atuan",
				Author:    "Ursula K. Le Guin",
				Status:    "wishlist",
				TagsJSON:  `["fantasy"]`,
				Series:    strPtr("Earthsea Cycle"),
				ReadNext:  true,
				DateAdded: strPtr("2025-02-01"),
			},
		},
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response: %v (body %q)", err, rec.Body.String())
	}
}

// --- Test: Health and metrics ---

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	doRequest(t, h, http.MethodGet, "/api/v1/search", "")
	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shelfmark_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

// --- Test: Search ---

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/search?q=atuan&status=wishlist", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result search.Result
	decodeBody(t, rec, &result)
	if result.TotalCount != 1 || result.Books[0].ID != "b2" {
		t.Errorf("unexpected search result: %+v", result)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()

	tests := []struct {
		name string
		path string
	}{
		{"bad status", "/api/v1/search?status=daydreaming"},
		{"bad rating", "/api/v1/search?min_rating=9"},
		{"bad date", "/api/v1/search?added_after=whenever"},
		{"negative offset", "/api/v1/search?offset=-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, h, http.MethodGet, tt.path, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSearchEndpointCapsLimit(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/search?limit=99999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result search.Result
	decodeBody(t, rec, &result)
	if result.FiltersApplied.Limit != 200 {
		t.Errorf("limit should cap at max page size, got %d", result.FiltersApplied.Limit)
	}
}

// --- Test: Similar ---

func TestSimilarEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/books/b1/similar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		BookID  string             `json:"book_id"`
		Similar []similarity.Score `json:"similar"`
	}
	decodeBody(t, rec, &body)
	if body.BookID != "b1" {
		t.Errorf("wrong book id: %s", body.BookID)
	}
	if len(body.Similar) != 1 || body.Similar[0].Book.ID != "b2" {
		t.Errorf("expected b2 as similar, got %+v", body.Similar)
	}
}

func TestSimilarEndpointUnknownBook(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/books/ghost/similar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown book is an empty result, got %d", rec.Code)
	}
	var body struct {
		Similar []similarity.Score `json:"similar"`
	}
	decodeBody(t, rec, &body)
	if len(body.Similar) != 0 {
		t.Errorf("expected empty result, got %+v", body.Similar)
	}
}

func TestSimilarEndpointUsesConfiguredThreshold(t *testing.T) {
	t.Parallel()

	disc := testDiscoveryConfig()
	disc.SimilarityThreshold = 0.9
	h := newTestServerWithDiscovery(testStore(), disc).Routes()

	var body struct {
		Similar []similarity.Score `json:"similar"`
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/books/b1/similar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &body)
	if len(body.Similar) != 0 {
		t.Errorf("configured threshold should filter the match, got %+v", body.Similar)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/books/b1/similar?min_score=0.5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &body)
	if len(body.Similar) != 1 || body.Similar[0].Book.ID != "b2" {
		t.Errorf("explicit min_score should override the configured default, got %+v", body.Similar)
	}
}

// --- Test: Recommendations ---

func TestRecommendationsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Recommendations []recommend.Recommendation `json:"recommendations"`
	}
	decodeBody(t, rec, &body)
	if len(body.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if body.Recommendations[0].Book.ID != "b2" {
		t.Errorf("flagged book should lead, got %+v", body.Recommendations[0])
	}
}

func TestRecommendationsEndpointByType(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/recommendations?type=read_next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/recommendations?type=by_horoscope", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type should 400, got %d", rec.Code)
	}
}

func TestRecommendationsEndpointUsesConfiguredLimit(t *testing.T) {
	t.Parallel()

	store := testStore()
	store.books = append(store.books, models.Book{
		ID:        "b3",
		Title:     "The Dispossessed",
		Author:    "Ursula K. Le Guin",
		Status:    "wishlist",
		TagsJSON:  `["science-fiction"]`,
		DateAdded: strPtr("2025-03-01"),
	})
	disc := testDiscoveryConfig()
	disc.RecommendationLimit = 1
	h := newTestServerWithDiscovery(store, disc).Routes()

	var body struct {
		Recommendations []recommend.Recommendation `json:"recommendations"`
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/recommendations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &body)
	if len(body.Recommendations) != 1 {
		t.Fatalf("configured limit should cap the default list, got %d", len(body.Recommendations))
	}
	if body.Recommendations[0].Book.ID != "b2" {
		t.Errorf("flagged book should lead, got %+v", body.Recommendations[0])
	}

	rec = doRequest(t, h, http.MethodGet, "/api/v1/recommendations?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeBody(t, rec, &body)
	if len(body.Recommendations) < 2 {
		t.Errorf("explicit limit should override the configured default, got %d", len(body.Recommendations))
	}
}

func TestWhatToReadNextEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/recommendations/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Recommendation *recommend.Recommendation `json:"recommendation"`
	}
	decodeBody(t, rec, &body)
	if body.Recommendation == nil || body.Recommendation.Book.ID != "b2" {
		t.Errorf("expected b2 as next pick, got %+v", body.Recommendation)
	}
}

// --- Test: Integrity ---

func TestIntegrityEndpoint(t *testing.T) {
	t.Parallel()

	store := testStore()
	store.books = append(store.books, models.Book{ID: "broken", Title: "", Author: "", Status: "nope"})
	h := newTestServer(store).Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/v1/integrity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report integrity.Report
	decodeBody(t, rec, &report)
	if report.Passed {
		t.Error("broken library must not pass")
	}
	if report.Criticals == 0 {
		t.Error("expected a critical issue for the missing title")
	}
}

func TestIntegrityBookEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/integrity/books/ghost", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with failed report, got %d", rec.Code)
	}
	var report integrity.Report
	decodeBody(t, rec, &report)
	if report.Passed {
		t.Error("unknown book must fail the report")
	}
}

func TestIntegrityFixEndpoint(t *testing.T) {
	t.Parallel()

	store := testStore()
	store.books = append(store.books, models.Book{
		ID: "fixme", Title: "F", Author: "X", Status: "wishlist", TagsJSON: "fantasy, classics",
	})
	h := newTestServer(store).Routes()

	body := `{"issues":[{"severity":2,"category":"tag_format","book_id":"fixme","message":"tags"}],"dry_run":true}`
	rec := doRequest(t, h, http.MethodPost, "/api/v1/integrity/fix", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result integrity.FixResult
	decodeBody(t, rec, &result)
	if result.Fixed != 1 {
		t.Errorf("expected one fixable issue, got %+v", result)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/v1/integrity/fix", `{"issues":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty issue list should 400, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodPost, "/api/v1/integrity/fix", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON should 400, got %d", rec.Code)
	}
}

// --- Test: Stats ---

func TestAuthorStatsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/stats/authors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Authors []stats.AuthorStat `json:"authors"`
	}
	decodeBody(t, rec, &body)
	if len(body.Authors) != 1 || body.Authors[0].Author != "Ursula K. Le Guin" {
		t.Errorf("unexpected author stats: %+v", body.Authors)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(testStore()).Routes()
	rec := doRequest(t, h, http.MethodGet, "/api/v1/stats/insights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var insights stats.ReadingInsights
	decodeBody(t, rec, &insights)
	if insights.TotalBooks != 2 || insights.CompletedBooks != 1 {
		t.Errorf("unexpected insights: %+v", insights)
	}
}
