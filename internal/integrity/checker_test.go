// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package integrity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

type fakeStore struct {
	books   []models.Book
	logs    []models.ReadingLog
	updates []update
	failIDs map[string]bool
	txCount int
}

type update struct {
	id     string
	fields map[string]any
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

func (f *fakeStore) UpdateBookFields(_ context.Context, id string, fields map[string]any) error {
	if f.failIDs[id] {
		return context.DeadlineExceeded
	}
	f.updates = append(f.updates, update{id: id, fields: fields})
	return nil
}

func (f *fakeStore) WithTx(_ context.Context, fn func(models.Store) error) error {
	f.txCount++
	return fn(f)
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func newTestChecker(store *fakeStore) *Checker {
	c := NewChecker(store, zerolog.Nop())
	c.now = func() time.Time {
		return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func findIssue(t *testing.T, report *Report, category string, contains string) *Issue {
	t.Helper()
	for i := range report.Issues {
		issue := &report.Issues[i]
		if issue.Category == category && strings.Contains(issue.Message, contains) {
			return issue
		}
	}
	t.Fatalf("no %s issue containing %q in %+v", category, contains, report.Issues)
	return nil
}

func hasIssue(report *Report, category string) bool {
	for _, issue := range report.Issues {
		if issue.Category == category {
			return true
		}
	}
	return false
}

// --- Test: Empty library ---

func TestCheckAllEmptyLibrary(t *testing.T) {
	t.Parallel()

	c := newTestChecker(&fakeStore{})
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if !report.Passed {
		t.Error("empty library must pass")
	}
	if report.BookCount != 0 || report.LogCount != 0 || len(report.Issues) != 0 {
		t.Errorf("expected zero counts, got %+v", report)
	}
}

func TestCheckAllCleanLibrary(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{
				ID:           "b1",
				Title:        "The Dispossessed",
				Author:       "Ursula K. Le Guin",
				Status:       "completed",
				Rating:       intPtr(5),
				PageCount:    intPtr(387),
				TagsJSON:     `["science fiction"]`,
				DateAdded:    strPtr("2025-01-10"),
				DateStarted:  strPtr("2025-02-01"),
				DateFinished: strPtr("2025-02-20"),
				ISBN13:       strPtr("9780061054884"),
			},
		},
		logs: []models.ReadingLog{
			{ID: "l1", BookID: "b1", Date: "2025-02-02", PagesRead: intPtr(40)},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if !report.Passed {
		t.Errorf("clean library must pass, issues: %+v", report.Issues)
	}
	if report.BookCount != 1 || report.LogCount != 1 {
		t.Errorf("wrong counts: %+v", report)
	}
}

// snapshotStore records whether each read ran inside an acquisition.
type snapshotStore struct {
	fakeStore
	inTx      bool
	reads     int
	readsInTx int
}

func (s *snapshotStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	s.reads++
	if s.inTx {
		s.readsInTx++
	}
	return s.fakeStore.ListBooks(ctx)
}

func (s *snapshotStore) ListReadingLogs(ctx context.Context, bookID string) ([]models.ReadingLog, error) {
	s.reads++
	if s.inTx {
		s.readsInTx++
	}
	return s.fakeStore.ListReadingLogs(ctx, bookID)
}

func (s *snapshotStore) WithTx(_ context.Context, fn func(models.Store) error) error {
	s.txCount++
	s.inTx = true
	defer func() { s.inTx = false }()
	return fn(s)
}

func TestCheckAllReadsInOneAcquisition(t *testing.T) {
	t.Parallel()

	store := &snapshotStore{fakeStore: fakeStore{
		books: []models.Book{{ID: "b1", Title: "A", Author: "X", Status: "wishlist"}},
		logs:  []models.ReadingLog{{ID: "l1", BookID: "ghost", Date: "2026-01-01"}},
	}}
	c := NewChecker(store, zerolog.Nop())
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if store.txCount != 1 {
		t.Errorf("expected a single acquisition, got %d", store.txCount)
	}
	if store.reads != 2 || store.readsInTx != 2 {
		t.Errorf("both reads must run inside the acquisition, got %d of %d", store.readsInTx, store.reads)
	}
	if !hasIssue(report, CategoryOrphanedLog) {
		t.Error("expected an orphaned log issue")
	}
}

// --- Test: Required fields and status ---

func TestCheckRequiredFieldsAndStatus(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "  ", Author: "", Status: "daydreaming"},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if report.Passed {
		t.Error("report must fail")
	}

	title := findIssue(t, report, CategoryRequiredField, "no title")
	if title.Severity != SeverityCritical {
		t.Errorf("missing title should be critical, got %s", title.Severity)
	}
	author := findIssue(t, report, CategoryRequiredField, "no author")
	if author.Severity != SeverityError {
		t.Errorf("missing author should be error, got %s", author.Severity)
	}
	status := findIssue(t, report, CategoryStatus, "daydreaming")
	if status.Severity != SeverityError {
		t.Errorf("unknown status should be error, got %s", status.Severity)
	}
	if report.Criticals != 1 {
		t.Errorf("expected 1 critical, got %d", report.Criticals)
	}
}

// --- Test: Ratings ---

func TestCheckRating(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "completed", Rating: intPtr(7)},
			{ID: "b2", Title: "B", Author: "X", Status: "reading", Rating: intPtr(4), DateStarted: strPtr("2026-01-01")},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}

	out := findIssue(t, report, CategoryRating, "outside 1-5")
	if out.Severity != SeverityError {
		t.Errorf("out-of-range rating should be error, got %s", out.Severity)
	}
	early := findIssue(t, report, CategoryRating, "not completed")
	if early.Severity != SeverityInfo {
		t.Errorf("premature rating should be info, got %s", early.Severity)
	}
}

// --- Test: Dates ---

func TestCheckDates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		book         models.Book
		wantContains string
		wantSeverity Severity
	}{
		{
			name: "unparsable date",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "wishlist",
				DateAdded: strPtr("last tuesday"),
			},
			wantContains: "not a valid ISO date",
			wantSeverity: SeverityError,
		},
		{
			name: "started after finished",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "completed",
				DateStarted: strPtr("2025-03-01"), DateFinished: strPtr("2025-02-01"),
			},
			wantContains: "after",
			wantSeverity: SeverityError,
		},
		{
			name: "added after started",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "reading",
				DateAdded: strPtr("2025-03-01"), DateStarted: strPtr("2025-02-01"),
			},
			wantContains: "date_added",
			wantSeverity: SeverityWarning,
		},
		{
			name: "completed without finish date",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "completed",
			},
			wantContains: "no date_finished",
			wantSeverity: SeverityWarning,
		},
		{
			name: "reading without start date",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "reading",
			},
			wantContains: "no date_started",
			wantSeverity: SeverityInfo,
		},
		{
			name: "future finish",
			book: models.Book{
				ID: "b", Title: "T", Author: "A", Status: "completed",
				DateFinished: strPtr("2031-01-01"),
			},
			wantContains: "future",
			wantSeverity: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{books: []models.Book{tt.book}}
			c := newTestChecker(store)
			report, err := c.CheckAll(context.Background())
			if err != nil {
				t.Fatalf("CheckAll failed: %v", err)
			}
			issue := findIssue(t, report, CategoryDates, tt.wantContains)
			if issue.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", issue.Severity, tt.wantSeverity)
			}
		})
	}
}

// --- Test: Progress ---

func TestCheckProgress(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "reading", DateStarted: strPtr("2026-01-01"), Progress: strPtr("around half")},
			{ID: "b2", Title: "B", Author: "X", Status: "reading", DateStarted: strPtr("2026-01-01"), Progress: strPtr("400/300")},
			{ID: "b3", Title: "C", Author: "X", Status: "reading", DateStarted: strPtr("2026-01-01"), Progress: strPtr("100/300"), PageCount: intPtr(320)},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}

	bad := findIssue(t, report, CategoryProgress, "current/total")
	if bad.Severity != SeverityWarning {
		t.Errorf("bad format should warn, got %s", bad.Severity)
	}
	over := findIssue(t, report, CategoryProgress, "exceeds")
	if over.Severity != SeverityError {
		t.Errorf("overshoot should be error, got %s", over.Severity)
	}
	mismatch := findIssue(t, report, CategoryProgress, "differs from page_count")
	if mismatch.Severity != SeverityInfo {
		t.Errorf("total mismatch should be info, got %s", mismatch.Severity)
	}
}

// --- Test: Tags, series, ISBN ---

func TestCheckTagFormat(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "wishlist", TagsJSON: `fantasy, classics`},
			{ID: "b2", Title: "B", Author: "X", Status: "wishlist", TagsJSON: `{"not":"a list"}`},
			{ID: "b3", Title: "C", Author: "X", Status: "wishlist", TagsJSON: `["fine"]`},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	issues := report.IssuesByCategory(CategoryTagFormat)
	if len(issues) != 2 {
		t.Fatalf("expected 2 tag issues, got %d: %+v", len(issues), issues)
	}
	for _, issue := range issues {
		if issue.Severity != SeverityError {
			t.Errorf("tag format should be error, got %s", issue.Severity)
		}
	}
}

func TestCheckSeries(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "wishlist", Series: strPtr("Earthsea Cycle")},
			{ID: "b2", Title: "B", Author: "X", Status: "wishlist", SeriesIndex: floatPtr(2)},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	if len(report.IssuesByCategory(CategorySeries)) != 2 {
		t.Errorf("expected both series issues, got %+v", report.Issues)
	}
	if !report.Passed {
		t.Error("warnings alone must not fail the report")
	}
}

func TestCheckISBN(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "wishlist", ISBN: strPtr("0306406152")},
			{ID: "b2", Title: "B", Author: "X", Status: "wishlist", ISBN: strPtr("0306406153")},
			{ID: "b3", Title: "C", Author: "X", Status: "wishlist", ISBN13: strPtr("9780306406157")},
			{ID: "b4", Title: "D", Author: "X", Status: "wishlist", ISBN13: strPtr("9780306406158")},
			{ID: "b5", Title: "E", Author: "X", Status: "wishlist", ISBN: strPtr("080442957X")},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}
	issues := report.IssuesByCategory(CategoryISBN)
	if len(issues) != 2 {
		t.Fatalf("expected 2 ISBN issues, got %+v", issues)
	}
	for _, issue := range issues {
		if issue.Severity != SeverityWarning {
			t.Errorf("ISBN issues never fail the scan, got %s", issue.Severity)
		}
	}
	if !report.Passed {
		t.Error("ISBN warnings alone must not fail the report")
	}
}

// --- Test: Duplicates ---

func TestCheckDuplicates(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "Dune", Author: "Frank Herbert", Status: "completed", ISBN13: strPtr("9780441013593"), DateFinished: strPtr("2025-01-01")},
			{ID: "b2", Title: "Dune (reissue)", Author: "Frank Herbert", Status: "wishlist", ISBN13: strPtr("9780441013593")},
			{ID: "b3", Title: "Piranesi", Author: "Susanna Clarke", Status: "wishlist"},
			{ID: "b4", Title: "piranesi", Author: "susanna clarke", Status: "wishlist"},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}

	isbnDup := findIssue(t, report, CategoryDuplicate, "ISBN")
	if isbnDup.Severity != SeverityError {
		t.Errorf("ISBN duplicate should be error, got %s", isbnDup.Severity)
	}
	pairDup := findIssue(t, report, CategoryDuplicate, "same title and author")
	if pairDup.Severity != SeverityWarning {
		t.Errorf("title+author duplicate should be warning, got %s", pairDup.Severity)
	}
}

// --- Test: Reading logs ---

func TestCheckLogs(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "reading", DateStarted: strPtr("2026-01-01")},
		},
		logs: []models.ReadingLog{
			{ID: "l1", BookID: "ghost", Date: "2026-01-02"},
			{ID: "l2", BookID: "b1", Date: "2026-01-03", PagesRead: intPtr(-5)},
			{ID: "l3", BookID: "b1", Date: "2026-01-04", StartPage: intPtr(100), EndPage: intPtr(50)},
			{ID: "l4", BookID: "b1", Date: "2026-01-05", DurationMinutes: intPtr(-10)},
			{ID: "l5", BookID: "b1", Date: "not a date"},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll failed: %v", err)
	}

	orphan := findIssue(t, report, CategoryOrphanedLog, "ghost")
	if orphan.Severity != SeverityError {
		t.Errorf("orphaned log should be error, got %s", orphan.Severity)
	}
	findIssue(t, report, CategoryLog, "negative pages_read")
	findIssue(t, report, CategoryLog, "before start_page")
	findIssue(t, report, CategoryLog, "negative duration")
	findIssue(t, report, CategoryLog, "not a valid ISO date")
}

// --- Test: CheckBook ---

func TestCheckBookUnknown(t *testing.T) {
	t.Parallel()

	c := newTestChecker(&fakeStore{})
	report, err := c.CheckBook(context.Background(), "missing")
	if err != nil {
		t.Fatalf("CheckBook failed: %v", err)
	}
	if report.Passed {
		t.Error("unknown book must fail the report")
	}
	existence := findIssue(t, report, CategoryExistence, "does not exist")
	if existence.Severity != SeverityError {
		t.Errorf("existence issue should be error, got %s", existence.Severity)
	}
}

func TestCheckBookScoped(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		books: []models.Book{
			{ID: "b1", Title: "A", Author: "X", Status: "reading", DateStarted: strPtr("2026-01-01"), Progress: strPtr("10/5")},
			{ID: "b2", Title: "", Author: "", Status: "nonsense"},
		},
		logs: []models.ReadingLog{
			{ID: "l1", BookID: "b1", Date: "2026-01-02", PagesRead: intPtr(-1)},
			{ID: "l2", BookID: "b2", Date: "2026-01-02", PagesRead: intPtr(-1)},
		},
	}
	c := newTestChecker(store)
	report, err := c.CheckBook(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CheckBook failed: %v", err)
	}
	if report.BookCount != 1 || report.LogCount != 1 {
		t.Errorf("wrong scoped counts: %+v", report)
	}
	findIssue(t, report, CategoryProgress, "exceeds")
	findIssue(t, report, CategoryLog, "negative pages_read")
	if hasIssue(report, CategoryRequiredField) || hasIssue(report, CategoryStatus) {
		t.Error("issues from other books leaked into a scoped check")
	}
}

// --- Test: Severity filters ---

func TestReportFilters(t *testing.T) {
	t.Parallel()

	report := &Report{}
	report.add(Issue{Severity: SeverityCritical, Category: CategoryRequiredField})
	report.add(Issue{Severity: SeverityWarning, Category: CategorySeries})
	report.add(Issue{Severity: SeverityWarning, Category: CategoryISBN})
	report.finalize()

	if n := len(report.IssuesBySeverity(SeverityWarning)); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
	if n := len(report.IssuesByCategory(CategorySeries)); n != 1 {
		t.Errorf("expected 1 series issue, got %d", n)
	}
	if report.Passed {
		t.Error("critical issue must fail the report")
	}
}
