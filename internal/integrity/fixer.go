// Shelfmark - Personal Book Tracking and Reading Analytics
// Copyright 2026 Shelfmark contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shelfmark/shelfmark

package integrity

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/shelfmark/shelfmark/internal/models"
)

// fixableCategories are the issue families with an automatic repair.
var fixableCategories = map[string]bool{
	CategoryTagFormat: true,
	CategoryProgress:  true,
}

// FixIssues repairs the fixable issues in the given set. A dry run
// makes exactly the same decisions but writes nothing. Real repairs
// run inside one store transaction per call; a record that fails to
// repair is counted and the rest continue.
func (c *Checker) FixIssues(ctx context.Context, issues []Issue, dryRun bool) (*FixResult, error) {
	result := &FixResult{}

	apply := func(store models.Store) error {
		for _, issue := range issues {
			c.fixIssue(ctx, store, issue, dryRun, result)
		}
		return nil
	}

	var err error
	if dryRun {
		err = apply(c.store)
	} else {
		err = c.store.WithTx(ctx, apply)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply fixes: %w", err)
	}

	c.logger.Info().
		Bool("dry_run", dryRun).
		Int("fixed", result.Fixed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Integrity repair completed")
	return result, nil
}

func (c *Checker) fixIssue(ctx context.Context, store models.Store, issue Issue, dryRun bool, result *FixResult) {
	if !fixableCategories[issue.Category] || issue.BookID == "" {
		result.Skipped++
		result.Details = append(result.Details,
			fmt.Sprintf("skipped [%s] %s: no automatic repair", issue.Category, issue.Message))
		return
	}

	book, err := store.GetBook(ctx, issue.BookID)
	if err != nil || book == nil {
		result.Failed++
		result.Details = append(result.Details,
			fmt.Sprintf("failed [%s] book %s: could not load record", issue.Category, issue.BookID))
		return
	}

	var fields map[string]any
	var detail string
	switch issue.Category {
	case CategoryTagFormat:
		fields, detail = fixTagFormat(book)
	case CategoryProgress:
		fields, detail = fixProgress(book)
	}

	if fields == nil {
		result.Skipped++
		result.Details = append(result.Details,
			fmt.Sprintf("skipped [%s] book %s: %s", issue.Category, issue.BookID, detail))
		return
	}

	if !dryRun {
		if err := store.UpdateBookFields(ctx, book.ID, fields); err != nil {
			result.Failed++
			result.Details = append(result.Details,
				fmt.Sprintf("failed [%s] book %s: %v", issue.Category, issue.BookID, err))
			return
		}
	}
	result.Fixed++
	result.Details = append(result.Details,
		fmt.Sprintf("fixed [%s] book %s: %s", issue.Category, issue.BookID, detail))
}

// fixTagFormat re-encodes a malformed tag field as a JSON list by
// treating the raw text as comma-separated tags.
func fixTagFormat(b *models.Book) (map[string]any, string) {
	if _, err := b.Tags(); err == nil {
		return nil, "tags already well formed"
	}
	raw := strings.Trim(b.TagsJSON, "[]\" ")
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), "\"'")
		if part != "" {
			tags = append(tags, part)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, "could not re-encode tags"
	}
	return map[string]any{"tags": string(encoded)},
		fmt.Sprintf("re-encoded tags as %s", encoded)
}

// fixProgress clamps an overshot current page back to the total.
func fixProgress(b *models.Book) (map[string]any, string) {
	if b.Progress == nil {
		return nil, "no progress value"
	}
	current, total, ok, err := b.ParsedProgress()
	if err != nil || !ok {
		return nil, "progress format is not repairable"
	}
	if current <= total {
		return nil, "progress already consistent"
	}
	fixed := fmt.Sprintf("%d/%d", total, total)
	return map[string]any{"progress": fixed},
		fmt.Sprintf("clamped progress from %s to %s", *b.Progress, fixed)
}
