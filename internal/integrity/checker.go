// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// Checker scans books and reading logs for integrity issues.
type Checker struct {
	store  models.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewChecker creates a checker over the given store.
func NewChecker(store models.Store, logger zerolog.Logger) *Checker {
	return &Checker{
		store:  store,
		logger: logger.With().Str("component", "integrity").Logger(),
		now:    time.Now,
	}
}

// CheckAll scans the whole library in one consistent snapshot. An
// empty library passes with zero counts.
func (c *Checker) CheckAll(ctx context.Context) (*Report, error) {
	// Both reads happen inside one acquisition so the orphan check
	// never sees a book list and a log list from different snapshots.
	var (
		books []models.Book
		logs  []models.ReadingLog
	)
	err := c.store.WithTx(ctx, func(tx models.Store) error {
		var err error
		if books, err = tx.ListBooks(ctx); err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		if logs, err = tx.ListReadingLogs(ctx, ""); err != nil {
			return fmt.Errorf("failed to list reading logs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		CheckedAt: c.now().UTC(),
		BookCount: len(books),
		LogCount:  len(logs),
	}

	for i := range books {
		c.checkBook(report, &books[i])
	}
	c.checkDuplicates(report, books)

	known := make(map[string]bool, len(books))
	for _, b := range books {
		known[b.ID] = true
	}
	for i := range logs {
		c.checkLog(report, &logs[i], known)
	}

	report.finalize()
	c.logger.Info().
		Int("books", report.BookCount).
		Int("logs", report.LogCount).
		Int("issues", len(report.Issues)).
		Bool("passed", report.Passed).
		Msg("Integrity scan completed")
	return report, nil
}

// CheckBook scans a single book and its reading logs. An unknown ID
// produces a failed report with an existence issue, not a Go error.
func (c *Checker) CheckBook(ctx context.Context, id string) (*Report, error) {
	report := &Report{CheckedAt: c.now().UTC()}

	book, err := c.store.GetBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if book == nil {
		report.add(Issue{
			Severity: SeverityError,
			Category: CategoryExistence,
			Message:  fmt.Sprintf("book %q does not exist", id),
			BookID:   id,
		})
		report.finalize()
		return report, nil
	}

	logs, err := c.store.ListReadingLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list reading logs: %w", err)
	}
	report.BookCount = 1
	report.LogCount = len(logs)

	c.checkBook(report, book)
	known := map[string]bool{book.ID: true}
	for i := range logs {
		c.checkLog(report, &logs[i], known)
	}

	report.finalize()
	return report, nil
}

// checkBook runs every per-record check against one book.
func (c *Checker) checkBook(r *Report, b *models.Book) {
	c.checkRequiredFields(r, b)
	c.checkStatus(r, b)
	c.checkRating(r, b)
	c.checkDates(r, b)
	c.checkProgress(r, b)
	c.checkTagFormat(r, b)
	c.checkSeries(r, b)
	c.checkISBN(r, b)
}

func (c *Checker) checkRequiredFields(r *Report, b *models.Book) {
	if strings.TrimSpace(b.Title) == "" {
		r.add(Issue{
			Severity:  SeverityCritical,
			Category:  CategoryRequiredField,
			Message:   "book has no title",
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if strings.TrimSpace(b.Author) == "" {
		r.add(Issue{
			Severity:  SeverityError,
			Category:  CategoryRequiredField,
			Message:   "book has no author",
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

func (c *Checker) checkStatus(r *Report, b *models.Book) {
	if _, err := models.ParseStatus(b.Status); err != nil {
		r.add(Issue{
			Severity:   SeverityError,
			Category:   CategoryStatus,
			Message:    fmt.Sprintf("unknown status %q", b.Status),
			BookID:     b.ID,
			BookTitle:  b.Title,
			Suggestion: fmt.Sprintf("use one of: %s", strings.Join(statusNames(), ", ")),
		})
	}
}

func statusNames() []string {
	all := models.AllStatuses()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return names
}

func (c *Checker) checkRating(r *Report, b *models.Book) {
	if b.Rating == nil {
		return
	}
	if *b.Rating < 1 || *b.Rating > 5 {
		r.add(Issue{
			Severity:  SeverityError,
			Category:  CategoryRating,
			Message:   fmt.Sprintf("rating %d outside 1-5", *b.Rating),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if b.Status != models.StatusCompleted.String() {
		r.add(Issue{
			Severity:  SeverityInfo,
			Category:  CategoryRating,
			Message:   fmt.Sprintf("rated but status is %q, not completed", b.Status),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

func (c *Checker) checkDates(r *Report, b *models.Book) {
	added := c.parseDate(r, b, "date_added", b.DateAdded)
	started := c.parseDate(r, b, "date_started", b.DateStarted)
	finished := c.parseDate(r, b, "date_finished", b.DateFinished)

	if started != nil && finished != nil && started.After(*finished) {
		r.add(Issue{
			Severity:  SeverityError,
			Category:  CategoryDates,
			Message:   fmt.Sprintf("date_started %s is after date_finished %s", *b.DateStarted, *b.DateFinished),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if added != nil && started != nil && added.After(*started) {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategoryDates,
			Message:   fmt.Sprintf("date_added %s is after date_started %s", *b.DateAdded, *b.DateStarted),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if b.Status == models.StatusCompleted.String() && (b.DateFinished == nil || *b.DateFinished == "") {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategoryDates,
			Message:   "completed book has no date_finished",
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if b.Status == models.StatusReading.String() && (b.DateStarted == nil || *b.DateStarted == "") {
		r.add(Issue{
			Severity:  SeverityInfo,
			Category:  CategoryDates,
			Message:   "book in progress has no date_started",
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if finished != nil && finished.After(c.now()) {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategoryDates,
			Message:   fmt.Sprintf("date_finished %s is in the future", *b.DateFinished),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

// parseDate reports unparsable dates and returns the parsed time for
// the ordering checks, nil when absent or malformed.
func (c *Checker) parseDate(r *Report, b *models.Book, field string, raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := models.ParseISODate(*raw)
	if err != nil {
		r.add(Issue{
			Severity:   SeverityError,
			Category:   CategoryDates,
			Message:    fmt.Sprintf("%s %q is not a valid ISO date", field, *raw),
			BookID:     b.ID,
			BookTitle:  b.Title,
			Suggestion: "use YYYY-MM-DD",
		})
		return nil
	}
	return &t
}

func (c *Checker) checkProgress(r *Report, b *models.Book) {
	if b.Progress == nil || *b.Progress == "" {
		return
	}
	current, total, ok, err := b.ParsedProgress()
	if err != nil || !ok {
		r.add(Issue{
			Severity:   SeverityWarning,
			Category:   CategoryProgress,
			Message:    fmt.Sprintf("progress %q is not in current/total form", *b.Progress),
			BookID:     b.ID,
			BookTitle:  b.Title,
			Suggestion: "use \"<current>/<total>\", for example 120/340",
		})
		return
	}
	if current > total {
		r.add(Issue{
			Severity:  SeverityError,
			Category:  CategoryProgress,
			Message:   fmt.Sprintf("progress current page %d exceeds total %d", current, total),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if b.PageCount != nil && total != *b.PageCount {
		r.add(Issue{
			Severity:  SeverityInfo,
			Category:  CategoryProgress,
			Message:   fmt.Sprintf("progress total %d differs from page_count %d", total, *b.PageCount),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

func (c *Checker) checkTagFormat(r *Report, b *models.Book) {
	if b.TagsJSON == "" {
		return
	}
	if _, err := b.Tags(); err != nil {
		r.add(Issue{
			Severity:   SeverityError,
			Category:   CategoryTagFormat,
			Message:    fmt.Sprintf("tags are not a JSON list: %v", err),
			BookID:     b.ID,
			BookTitle:  b.Title,
			Suggestion: "store tags as a JSON array of strings",
		})
	}
}

func (c *Checker) checkSeries(r *Report, b *models.Book) {
	hasSeries := b.Series != nil && strings.TrimSpace(*b.Series) != ""
	hasIndex := b.SeriesIndex != nil
	if hasSeries && !hasIndex {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategorySeries,
			Message:   fmt.Sprintf("series %q has no series index", *b.Series),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if hasIndex && !hasSeries {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategorySeries,
			Message:   fmt.Sprintf("series index %v without a series name", *b.SeriesIndex),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

func (c *Checker) checkISBN(r *Report, b *models.Book) {
	if b.ISBN != nil && *b.ISBN != "" && !validISBN10(*b.ISBN) {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategoryISBN,
			Message:   fmt.Sprintf("ISBN %q fails the ISBN-10 check", *b.ISBN),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
	if b.ISBN13 != nil && *b.ISBN13 != "" && !validISBN13(*b.ISBN13) {
		r.add(Issue{
			Severity:  SeverityWarning,
			Category:  CategoryISBN,
			Message:   fmt.Sprintf("ISBN-13 %q fails the ISBN-13 check", *b.ISBN13),
			BookID:    b.ID,
			BookTitle: b.Title,
		})
	}
}

// checkDuplicates looks across the whole set for repeated ISBNs and
// repeated title+author pairs.
func (c *Checker) checkDuplicates(r *Report, books []models.Book) {
	byISBN := make(map[string][]*models.Book)
	byTitleAuthor := make(map[string][]*models.Book)
	for i := range books {
		b := &books[i]
		for _, isbn := range []*string{b.ISBN, b.ISBN13} {
			if isbn != nil && *isbn != "" {
				key := normalizeISBN(*isbn)
				byISBN[key] = append(byISBN[key], b)
			}
		}
		title := strings.ToLower(strings.TrimSpace(b.Title))
		author := strings.ToLower(strings.TrimSpace(b.Author))
		if title != "" && author != "" {
			key := title + "\x00" + author
			byTitleAuthor[key] = append(byTitleAuthor[key], b)
		}
	}

	for isbn, group := range byISBN {
		if len(group) < 2 {
			continue
		}
		for _, b := range group[1:] {
			r.add(Issue{
				Severity:  SeverityError,
				Category:  CategoryDuplicate,
				Message:   fmt.Sprintf("ISBN %s already used by %q", isbn, group[0].Title),
				BookID:    b.ID,
				BookTitle: b.Title,
			})
		}
	}
	for _, group := range byTitleAuthor {
		if len(group) < 2 {
			continue
		}
		for _, b := range group[1:] {
			r.add(Issue{
				Severity:  SeverityWarning,
				Category:  CategoryDuplicate,
				Message:   fmt.Sprintf("same title and author as book %s", group[0].ID),
				BookID:    b.ID,
				BookTitle: b.Title,
			})
		}
	}
}

// checkLog validates one reading log entry.
func (c *Checker) checkLog(r *Report, l *models.ReadingLog, knownBooks map[string]bool) {
	if !knownBooks[l.BookID] {
		r.add(Issue{
			Severity: SeverityError,
			Category: CategoryOrphanedLog,
			Message:  fmt.Sprintf("reading log references missing book %q", l.BookID),
			LogID:    l.ID,
		})
	}
	if l.PagesRead != nil && *l.PagesRead < 0 {
		r.add(Issue{
			Severity: SeverityError,
			Category: CategoryLog,
			Message:  fmt.Sprintf("negative pages_read %d", *l.PagesRead),
			BookID:   l.BookID,
			LogID:    l.ID,
		})
	}
	if l.StartPage != nil && l.EndPage != nil && *l.EndPage < *l.StartPage {
		r.add(Issue{
			Severity: SeverityError,
			Category: CategoryLog,
			Message:  fmt.Sprintf("end_page %d before start_page %d", *l.EndPage, *l.StartPage),
			BookID:   l.BookID,
			LogID:    l.ID,
		})
	}
	if l.DurationMinutes != nil && *l.DurationMinutes < 0 {
		r.add(Issue{
			Severity: SeverityError,
			Category: CategoryLog,
			Message:  fmt.Sprintf("negative duration %d minutes", *l.DurationMinutes),
			BookID:   l.BookID,
			LogID:    l.ID,
		})
	}
	if l.Date != "" {
		if _, err := models.ParseISODate(l.Date); err != nil {
			r.add(Issue{
				Severity:   SeverityError,
				Category:   CategoryLog,
				Message:    fmt.Sprintf("log date %q is not a valid ISO date", l.Date),
				BookID:     l.BookID,
				LogID:      l.ID,
				Suggestion: "use YYYY-MM-DD",
			})
		}
	}
}
