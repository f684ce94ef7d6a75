package tasks

import (
	"time"

	"github.com/joonpark/curate-press/app/database"
	"github.com/joonpark/curate-press/app/ingest"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to manage background task
// processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SourceStore is the subset of the source repository tasks depend on.
type SourceStore interface {
	Upsert(name, url, category string) error
	GetByName(name string) (*database.Source, error)
	GetDueForRefresh() ([]database.Source, error)
	UpdateNextFetch(name string, nextFetch time.Time) error
}

// ContentStore is the subset of the content repository tasks depend on.
type ContentStore interface {
	Store(item ingest.NormalizedItem) error
	Get(id string) (*database.Content, error)
	KnownTitles(category string) (map[string]bool, error)
	UpdateBody(id, rawText, author string) error
}
