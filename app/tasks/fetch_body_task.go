package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joonpark/curate-press/app/content"
	"github.com/joonpark/curate-press/app/scrape"
)

// FetchBodyTask replaces a content's feed summary with the full text fetched
// through the platform-appropriate scraper.
type FetchBodyTask struct {
	Task
	ContentID   string
	scrapers    *scrape.Set
	contentRepo ContentStore
}

func NewFetchBodyTask(contentID string, scrapers *scrape.Set, contentRepo ContentStore) *FetchBodyTask {
	return &FetchBodyTask{
		Task:        NewTask(TaskTypeFetchBody, ""),
		ContentID:   contentID,
		scrapers:    scrapers,
		contentRepo: contentRepo,
	}
}

func (t *FetchBodyTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, err := t.contentRepo.Get(t.ContentID)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("content %s not found", t.ContentID)
	}

	scraper := t.scrapers.ForPlatform(content.Platform(stored.Platform))
	result, err := scraper.Fetch(ctx, stored.SourceURL)
	if err != nil {
		return fmt.Errorf("failed to scrape %s: %w", stored.SourceURL, err)
	}

	if err := t.contentRepo.UpdateBody(stored.ID, result.Content, result.Author); err != nil {
		return fmt.Errorf("failed to update content body: %w", err)
	}

	slog.Info("Task completed",
		"type", "FetchBody",
		"content_id", stored.ID,
		"platform", stored.Platform,
		"duration", t.GetDuration(),
		"chars", len(result.Content))

	return nil
}
