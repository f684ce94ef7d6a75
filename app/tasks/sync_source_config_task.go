package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joonpark/curate-press/app/sources"
)

// SyncSourceConfigTask mirrors a source configuration file into the database
// so fetch bookkeeping has a row to attach to.
type SyncSourceConfigTask struct {
	Task
	SourceConfig *sources.Config
	sourceRepo   SourceStore
}

func NewSyncSourceConfigTask(sourceName string, sourceConfig *sources.Config, sourceRepo SourceStore) *SyncSourceConfigTask {
	return &SyncSourceConfigTask{
		Task:         NewTask(TaskTypeSyncSourceConfig, sourceName),
		SourceConfig: sourceConfig,
		sourceRepo:   sourceRepo,
	}
}

func (t *SyncSourceConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.sourceRepo.Upsert(t.SourceName, t.SourceConfig.Source.URL, t.SourceConfig.Source.Category)
	if err != nil {
		return fmt.Errorf("failed to sync source config: %w", err)
	}

	slog.Debug("Source config synced", "source", t.SourceName)

	return nil
}
