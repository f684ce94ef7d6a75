package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/joonpark/curate-press/app/content"
)

// Candidate is one entry produced by a feed fetch. Ephemeral, never stored
// as-is.
type Candidate struct {
	Title       string
	URL         string
	Summary     string
	Author      string
	PublishedAt time.Time
}

// NormalizedItem is a candidate that survived deduplication, with its
// platform classified from the URL. Platform is immutable once set.
type NormalizedItem struct {
	ID            string
	Platform      content.Platform
	Title         string
	RawText       string
	Author        string
	SourceURL     string
	Category      string
	PublishedAt   time.Time
	ScrapedAt     time.Time
	IsBodyFetched bool
}

// Admit filters a batch of candidates against the set of already-known
// titles and assigns each survivor a classified platform.
//
// Titles are the sole dedup key (the same story may be re-published under a
// different link). Matching is case-sensitive on the NFC-normalized,
// trimmed title. knownTitles is copied locally so within-batch duplicates
// are suppressed without mutating the caller's set. A malformed candidate
// is skipped, never aborts the batch.
func Admit(candidates []Candidate, knownTitles map[string]bool, category string, maxItems int) []NormalizedItem {
	seen := make(map[string]bool, len(knownTitles))
	for title := range knownTitles {
		seen[TitleKey(title)] = true
	}

	now := time.Now().UTC()
	var items []NormalizedItem

	for _, candidate := range candidates {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
		if candidate.URL == "" {
			continue
		}

		key := TitleKey(candidate.Title)
		if key != "" && seen[key] {
			continue
		}

		items = append(items, NormalizedItem{
			ID:          uuid.NewString(),
			Platform:    content.ClassifyPlatform(candidate.URL),
			Title:       strings.TrimSpace(candidate.Title),
			RawText:     candidate.Summary,
			Author:      candidate.Author,
			SourceURL:   candidate.URL,
			Category:    category,
			PublishedAt: candidate.PublishedAt,
			ScrapedAt:   now,
		})

		if key != "" {
			seen[key] = true
		}
	}

	return items
}

// TitleKey canonicalizes a title for duplicate detection. Feeds sometimes
// deliver the same title in different Unicode composition forms.
func TitleKey(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}
