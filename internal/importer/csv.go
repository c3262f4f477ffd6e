// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

// Package importer loads books from CSV exports of other tracking
// tools. Column names are auto-detected from common variations, so a
// Goodreads export works without configuration.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfmark/shelfmark/internal/models"
)

// BookWriter is the subset of the store the importer needs.
type BookWriter interface {
	InsertBook(ctx context.Context, book *models.Book) (string, error)
}

// Result summarizes an import run.
type Result struct {
	// Imported counts books written to the store.
	Imported int

	// Skipped counts rows dropped for missing required fields or
	// insert failures.
	Skipped int
}

// Importer reads CSV files into the book store.
type Importer struct {
	writer BookWriter
	logger zerolog.Logger
}

// New creates an importer writing to the given store.
func New(writer BookWriter, logger zerolog.Logger) *Importer {
	return &Importer{
		writer: writer,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// ImportFile imports every usable row of a CSV file. Malformed rows
// are skipped with a warning; only file-level problems are errors.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import imports every usable row from CSV data.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := detectColumns(header)
	if _, ok := cols["title"]; !ok {
		return nil, fmt.Errorf("no title column found in CSV header")
	}
	if _, ok := cols["author"]; !ok {
		return nil, fmt.Errorf("no author column found in CSV header")
	}

	result := &Result{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			im.logger.Warn().Int("line", line).Err(err).Msg("Skipping unreadable CSV row")
			result.Skipped++
			continue
		}

		book, ok := im.parseRow(row, cols)
		if !ok {
			im.logger.Warn().Int("line", line).Msg("Skipping row without title or author")
			result.Skipped++
			continue
		}
		if _, err := im.writer.InsertBook(ctx, book); err != nil {
			im.logger.Warn().Int("line", line).Str("title", book.Title).Err(err).
				Msg("Failed to insert imported book")
			result.Skipped++
			continue
		}
		result.Imported++
	}

	im.logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("CSV import completed")
	return result, nil
}

// columnVariations maps internal field names to the CSV column names
// commonly used for them by exports in the wild.
var columnVariations = map[string][]string{
	"title":            {"title", "book title", "name", "book name", "book"},
	"author":           {"author", "authors", "writer", "by", "book author"},
	"isbn":             {"isbn", "isbn10", "isbn-10"},
	"isbn13":           {"isbn13", "isbn-13", "ean"},
	"status":           {"status", "shelf", "reading status", "state", "exclusive shelf"},
	"rating":           {"rating", "my rating", "stars", "score"},
	"page_count":       {"pages", "page count", "number of pages", "length"},
	"date_added":       {"date added", "added", "add date", "date"},
	"date_started":     {"date started", "started", "start date", "began"},
	"date_finished":    {"date finished", "finished", "date read", "read date", "completed"},
	"tags":             {"tags", "genres", "shelves", "categories", "bookshelves"},
	"comments":         {"comments", "notes", "review", "my review", "thoughts"},
	"publisher":        {"publisher", "publishing", "pub"},
	"publication_year": {"year", "publication year", "pub year", "year published"},
	"series":           {"series", "series name"},
	"series_index":     {"series index", "series #", "book #", "number in series"},
	"avg_rating":       {"average rating", "avg rating", "goodreads rating"},
}

// detectColumns maps internal field names to header positions.
func detectColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	cols := make(map[string]int)
	for field, variations := range columnVariations {
		for _, v := range variations {
			if idx, ok := byName[v]; ok {
				cols[field] = idx
				break
			}
		}
	}
	return cols
}

// statusMapping maps shelf names from other tools onto our statuses.
var statusMapping = map[string]models.BookStatus{
	"read":              models.StatusCompleted,
	"completed":         models.StatusCompleted,
	"done":              models.StatusCompleted,
	"finished":          models.StatusCompleted,
	"reading":           models.StatusReading,
	"currently reading": models.StatusReading,
	"currently-reading": models.StatusReading,
	"in progress":       models.StatusReading,
	"to read":           models.StatusWishlist,
	"to-read":           models.StatusWishlist,
	"want to read":      models.StatusWishlist,
	"wishlist":          models.StatusWishlist,
	"tbr":               models.StatusWishlist,
	"on hold":           models.StatusOnHold,
	"on-hold":           models.StatusOnHold,
	"paused":            models.StatusOnHold,
	"dnf":               models.StatusDNF,
	"did not finish":    models.StatusDNF,
	"abandoned":         models.StatusDNF,
}

// parseRow builds a book from one CSV row. Rows without a title or
// author are unusable.
func (im *Importer) parseRow(row []string, cols map[string]int) (*models.Book, bool) {
	get := func(field string) string {
		idx, ok := cols[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	title := get("title")
	author := get("author")
	if title == "" || author == "" {
		return nil, false
	}

	book := &models.Book{
		Title:  title,
		Author: author,
		Status: parseStatus(get("status")).String(),
	}

	book.ISBN = optStr(get("isbn"))
	book.ISBN13 = optStr(get("isbn13"))
	book.Rating = parseRating(get("rating"))
	book.PageCount = optInt(get("page_count"))
	book.DateAdded = parseDate(get("date_added"))
	book.DateStarted = parseDate(get("date_started"))
	book.DateFinished = parseDate(get("date_finished"))
	book.Series = optStr(get("series"))
	book.SeriesIndex = optFloat(get("series_index"))
	book.Publisher = optStr(get("publisher"))
	book.PublicationYear = optInt(get("publication_year"))
	book.GoodreadsAvgRating = optFloat(get("avg_rating"))
	book.Comments = optStr(get("comments"))

	if err := book.SetTags(parseTags(get("tags"))); err != nil {
		book.TagsJSON = "[]"
	}
	return book, true
}

func parseStatus(raw string) models.BookStatus {
	if s, ok := statusMapping[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return models.StatusWishlist
}

// parseRating accepts integers and decimal exports like "4.0". Zero
// means unrated.
func parseRating(raw string) *int {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 1 {
		return nil
	}
	v := int(f)
	return &v
}

func optStr(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func optInt(raw string) *int {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}

func optFloat(raw string) *float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateFormats are tried in order when normalizing dates to ISO.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05",
}

func parseDate(raw string) *string {
	if raw == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			iso := t.Format(models.ISODate)
			return &iso
		}
	}
	return nil
}

func parseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}
