package export

import (
	"context"
	"log/slog"
	"time"

	"github.com/joonpark/curate-press/app/queue"
)

// Store is what the runner needs from the destination store client.
type Store interface {
	GetSchema(ctx context.Context, databaseID string) (*Schema, error)
	CreatePage(ctx context.Context, databaseID string, fields map[string]any, content string) error
}

// Runner exports queue items into a destination database, adapting to
// whatever schema it finds there.
type Runner struct {
	store Store
	repo  queue.Repository
}

func NewRunner(store Store, repo queue.Repository) *Runner {
	return &Runner{store: store, repo: repo}
}

// Run exports the given queue items in order. The schema is fetched once
// per batch; items are processed strictly sequentially and failures are
// collected per item, never aborting the batch. Successfully exported items
// transition to uploaded.
//
// A schema fetch failure aborts the whole batch (there is nothing to map
// against) and is reported as the returned error.
func (r *Runner) Run(ctx context.Context, databaseID string, ids []string) (queue.BatchResult, error) {
	var result queue.BatchResult

	schema, err := r.store.GetSchema(ctx, databaseID)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		item, err := r.repo.Get(id)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, queue.ItemError{ID: id, Message: err.Error()})
			continue
		}

		fields := BuildFields(schema, recordFromItem(item))

		if err := r.store.CreatePage(ctx, databaseID, fields, item.Content); err != nil {
			slog.Error("Export failed", "id", id, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, queue.ItemError{ID: id, Message: err.Error()})
			continue
		}

		now := time.Now().UTC()
		if err := r.repo.UpdateStatus(id, queue.StatusUploaded, &now); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, queue.ItemError{ID: id, Message: err.Error()})
			continue
		}

		result.Succeeded++
	}

	slog.Info("Export batch completed",
		"database", databaseID,
		"total", len(ids),
		"uploaded", result.Succeeded,
		"failed", result.Failed)

	return result, nil
}

func recordFromItem(item *queue.Item) Record {
	return Record{
		Title:        item.Title,
		Status:       string(item.Status),
		Category:     item.Category,
		Destinations: item.Targets,
		SourceURL:    item.SourceURL,
		Date:         item.ScheduledAt,
	}
}
