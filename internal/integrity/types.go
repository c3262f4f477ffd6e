// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package integrity scans the library for malformed, inconsistent or
// duplicated records and can repair the mechanical subset of what it
// finds.
package integrity

import "time"

// Severity grades how serious an integrity issue is.
type Severity int

const (
	// SeverityInfo flags advisory findings that need no action.
	SeverityInfo Severity = iota
	// SeverityWarning flags data that is suspicious but usable.
	SeverityWarning
	// SeverityError flags data that breaks queries or statistics.
	SeverityError
	// SeverityCritical flags records that are unusable as stored.
	SeverityCritical
)

// String returns the stable name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Issue categories. Stable strings, used for filtering and to decide
// fixability.
const (
	CategoryRequiredField = "required_field"
	CategoryStatus        = "status"
	CategoryRating        = "rating"
	CategoryDates         = "dates"
	CategoryProgress      = "progress"
	CategoryTagFormat     = "tag_format"
	CategorySeries        = "series"
	CategoryDuplicate     = "duplicate"
	CategoryOrphanedLog   = "orphaned_log"
	CategoryLog           = "log"
	CategoryISBN          = "isbn"
	CategoryExistence     = "existence"
)

// Issue is a single finding from an integrity scan.
type Issue struct {
	// Severity grades the finding.
	Severity Severity `json:"severity"`

	// Category is the stable check family name.
	Category string `json:"category"`

	// Message describes the specific problem.
	Message string `json:"message"`

	// BookID and BookTitle identify the affected book, when there is one.
	BookID    string `json:"book_id,omitempty"`
	BookTitle string `json:"book_title,omitempty"`

	// LogID identifies the affected reading log, when there is one.
	LogID string `json:"log_id,omitempty"`

	// Suggestion describes how to resolve the issue, when known.
	Suggestion string `json:"suggestion,omitempty"`
}

// Report is the outcome of an integrity scan.
type Report struct {
	// CheckedAt is when the scan ran.
	CheckedAt time.Time `json:"checked_at"`

	// BookCount and LogCount are the number of records scanned.
	BookCount int `json:"book_count"`
	LogCount  int `json:"log_count"`

	// Issues holds every finding, in scan order.
	Issues []Issue `json:"issues"`

	// Passed is true when the scan found no errors and no criticals.
	Passed bool `json:"passed"`

	// Severity counters over Issues.
	Criticals int `json:"criticals"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Infos     int `json:"infos"`
}

// add records an issue and updates the counters.
func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	switch issue.Severity {
	case SeverityCritical:
		r.Criticals++
	case SeverityError:
		r.Errors++
	case SeverityWarning:
		r.Warnings++
	case SeverityInfo:
		r.Infos++
	}
}

// finalize computes the pass flag once all issues are recorded.
func (r *Report) finalize() {
	r.Passed = r.Criticals == 0 && r.Errors == 0
}

// IssuesBySeverity returns the issues at exactly the given severity.
func (r *Report) IssuesBySeverity(sev Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// IssuesByCategory returns the issues in the given category.
func (r *Report) IssuesByCategory(category string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

// FixResult summarizes a repair pass over a set of issues.
type FixResult struct {
	// Fixed counts issues that were (or in a dry run, would be) repaired.
	Fixed int `json:"fixed"`

	// Skipped counts issues with no automatic repair.
	Skipped int `json:"skipped"`

	// Failed counts issues whose repair was attempted and failed.
	Failed int `json:"failed"`

	// Details records one line per processed issue.
	Details []string `json:"details"`
}
