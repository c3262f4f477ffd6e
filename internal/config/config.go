// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package config loads Shelfmark configuration with koanf, layering
// struct defaults, an optional YAML config file and SHELFMARK_-prefixed
// environment variables, then validating the result.
package config

import (
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/internal/similarity"
)

// Config is the root configuration for the Shelfmark service.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Discovery DiscoveryConfig `koanf:"discovery"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory
	// database, used by tests.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// DefaultPageSize and MaxPageSize bound search pagination over HTTP.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DiscoveryConfig tunes the discovery subsystem.
type DiscoveryConfig struct {
	// SimilarityThreshold is the minimum total score for a similarity
	// match to be reported. Applied when a request does not name its
	// own min_score.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// RecommendationLimit is the number of recommendations returned
	// when a request does not name its own limit.
	RecommendationLimit int `koanf:"recommendation_limit"`

	// Weights tunes the similarity dimensions. Must sum to 1.0.
	Weights similarity.Weights `koanf:"weights"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "shelfmark.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3850,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Discovery: DiscoveryConfig{
			SimilarityThreshold: 0.1,
			RecommendationLimit: 10,
			Weights:             similarity.DefaultWeights(),
		},
	}
}

// Validate checks the configuration for contract violations and fails fast
// with a descriptive error.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Server.DefaultPageSize < 1 {
		return fmt.Errorf("server.default_page_size must be at least 1")
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		return fmt.Errorf("server.max_page_size %d below default_page_size %d",
			c.Server.MaxPageSize, c.Server.DefaultPageSize)
	}
	if c.Discovery.SimilarityThreshold < 0 || c.Discovery.SimilarityThreshold >= 1 {
		return fmt.Errorf("discovery.similarity_threshold %f out of range [0,1)",
			c.Discovery.SimilarityThreshold)
	}
	if c.Discovery.RecommendationLimit < 1 {
		return fmt.Errorf("discovery.recommendation_limit must be at least 1")
	}
	if err := c.Discovery.Weights.Validate(); err != nil {
		return fmt.Errorf("discovery.weights: %w", err)
	}
	return nil
}
