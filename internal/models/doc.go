// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package models defines the core domain types shared across Shelfmark:
// books, reading logs, the status enumeration, and the Store interface
// consumed by the discovery and integrity subsystems.
//
// The types mirror what the store persists. Fields that may legitimately
// contain bad data (status strings, tag JSON, progress strings, ISO dates)
// are kept in their raw stored form so the integrity checker can inspect
// them; typed accessors such as Book.Tags and Book.ParsedProgress perform
// the validation and report failures instead of panicking.
package models
