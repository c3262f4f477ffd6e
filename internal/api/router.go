// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package api provides the HTTP surface over the discovery subsystem
// using the chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/config"
	"github.com/shelfmark/shelfmark/internal/integrity"
	"github.com/shelfmark/shelfmark/internal/middleware"
	"github.com/shelfmark/shelfmark/internal/models"
	"github.com/shelfmark/shelfmark/internal/recommend"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/similarity"
	"github.com/shelfmark/shelfmark/internal/stats"
)

// Server wires the discovery components behind HTTP handlers.
type Server struct {
	cfg       config.ServerConfig
	disc      config.DiscoveryConfig
	store     models.Store
	search    *search.Engine
	finder    *similarity.Finder
	recommend *recommend.Engine
	checker   *integrity.Checker
	stats     *stats.Aggregator
	logger    zerolog.Logger
	metrics   *metrics
}

// NewServer creates the HTTP server facade over the given components.
func NewServer(
	cfg config.ServerConfig,
	disc config.DiscoveryConfig,
	store models.Store,
	searchEngine *search.Engine,
	finder *similarity.Finder,
	recEngine *recommend.Engine,
	checker *integrity.Checker,
	aggregator *stats.Aggregator,
	logger zerolog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		disc:      disc,
		store:     store,
		search:    searchEngine,
		finder:    finder,
		recommend: recEngine,
		checker:   checker,
		stats:     aggregator,
		logger:    logger.With().Str("component", "api").Logger(),
		metrics:   newMetrics(),
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
		r.Use(s.metrics.middleware)
		r.Use(middleware.Compression)

		r.Get("/search", s.handleSearch)
		r.Get("/books/{id}/similar", s.handleSimilar)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/recommendations/next", s.handleWhatToReadNext)
		r.Get("/integrity", s.handleIntegrity)
		r.Get("/integrity/books/{id}", s.handleIntegrityBook)
		r.Post("/integrity/fix", s.handleIntegrityFix)
		r.Get("/stats/authors", s.handleAuthorStats)
		r.Get("/stats/insights", s.handleInsights)
	})

	return r
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("Request handled")
	})
}
