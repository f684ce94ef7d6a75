package queue

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusUploaded  Status = "uploaded"
	StatusFailed    Status = "failed"
)

var (
	ErrNotFound      = errors.New("queue item not found")
	ErrInvalidStatus = errors.New("invalid queue status")
	// ErrTerminalStatus is returned for manual transitions out of uploaded
	// or failed. Those states only leave the machine through deletion.
	ErrTerminalStatus = errors.New("item is in a terminal status")
	// ErrNoDestination is returned when none of an item's target
	// destinations resolves to a configured profile ID.
	ErrNoDestination = errors.New("no destination resolves to a configured profile")
)

// Item is one entry in the publish queue.
//
// Invariants: status scheduled implies ScheduledAt set; status uploaded
// implies UploadedAt set; Position is a dense ordering key assigned as
// max+1 at enqueue time.
type Item struct {
	ID          string
	Content     string
	Title       string
	Category    string
	SourceURL   string
	Targets     []string
	Status      Status
	ScheduledAt *time.Time
	UploadedAt  *time.Time
	Position    int
	CreatedAt   time.Time
}

// EnqueueParams carries everything needed to create a queue item. Title,
// Category and SourceURL are optional metadata copied from the originating
// content; they only matter for export.
type EnqueueParams struct {
	Content     string
	Targets     []string
	Title       string
	Category    string
	SourceURL   string
	ScheduledAt *time.Time
}

// ItemError records a single item's failure inside a batch operation.
type ItemError struct {
	ID      string `json:"id"`
	Message string `json:"error"`
}

// BatchResult reports partial success of a batch operation as counts plus a
// detail list, never a single boolean.
type BatchResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// Repository is the persistence boundary for queue items. The sqlite
// implementation lives in app/database.
type Repository interface {
	Insert(item Item) error
	Get(id string) (*Item, error)
	List(status Status) ([]Item, error)
	MaxPosition() (int, error)
	UpdateStatus(id string, status Status, uploadedAt *time.Time) error
	// UpdateSchedule sets scheduled_at and transitions the item to
	// scheduled in one step.
	UpdateSchedule(id string, scheduledAt time.Time) error
	Delete(id string) error
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusScheduled, StatusUploaded, StatusFailed:
		return true
	}
	return false
}
