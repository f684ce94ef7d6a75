package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joonpark/curate-press/app/ingest"
	"github.com/joonpark/curate-press/app/sources"
)

type FetchSourceTask struct {
	Task
	SourceConfig *sources.Config
	fetcher      *ingest.Fetcher
	sourceRepo   SourceStore
	contentRepo  ContentStore
}

func NewFetchSourceTask(sourceName string, sourceConfig *sources.Config, fetcher *ingest.Fetcher, sourceRepo SourceStore, contentRepo ContentStore) *FetchSourceTask {
	return &FetchSourceTask{
		Task:         NewTask(TaskTypeFetchSource, sourceName),
		SourceConfig: sourceConfig,
		fetcher:      fetcher,
		sourceRepo:   sourceRepo,
		contentRepo:  contentRepo,
	}
}

func (t *FetchSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	candidates, err := t.fetcher.Run(timeoutCtx, t.SourceConfig.Source.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	category := t.SourceConfig.Source.Category
	knownTitles, err := t.contentRepo.KnownTitles(category)
	if err != nil {
		return fmt.Errorf("failed to load known titles: %w", err)
	}

	items := ingest.Admit(candidates, knownTitles, category, t.SourceConfig.Settings.MaxItems)
	for _, item := range items {
		if err := t.contentRepo.Store(item); err != nil {
			return fmt.Errorf("failed to store content: %w", err)
		}
	}

	nextFetch := time.Now().UTC().Add(time.Duration(t.SourceConfig.Settings.RefreshInterval) * time.Second)
	if err := t.sourceRepo.UpdateNextFetch(t.SourceName, nextFetch); err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}

	slog.Info("Task completed",
		"type", "FetchSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", len(candidates),
		"new", len(items),
		"duplicates", len(candidates)-len(items))

	return nil
}
