package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is the outbound social-posting collaborator. Success or failure
// is all the queue needs to know.
type Publisher interface {
	Publish(ctx context.Context, text string, profileIDs []string) error
	Schedule(ctx context.Context, text string, profileIDs []string, at time.Time) error
}

// Service owns the queue's scheduling invariants and its status state
// machine. A single writer at a time per item is assumed.
type Service struct {
	repo Repository
	pub  Publisher
	// profileIDs maps a target destination name to the external posting
	// profile configured for it. Destinations without an entry cannot be
	// published to.
	profileIDs map[string]string
}

func NewService(repo Repository, pub Publisher, profileIDs map[string]string) *Service {
	return &Service{
		repo:       repo,
		pub:        pub,
		profileIDs: profileIDs,
	}
}

// Enqueue appends a new item. Status is scheduled when ScheduledAt is
// given, pending otherwise. Position is assigned as current max + 1
// regardless of the existing items' statuses.
func (s *Service) Enqueue(params EnqueueParams) (*Item, error) {
	maxPos, err := s.repo.MaxPosition()
	if err != nil {
		return nil, fmt.Errorf("failed to get max position: %w", err)
	}

	item := Item{
		ID:          uuid.NewString(),
		Content:     params.Content,
		Title:       params.Title,
		Category:    params.Category,
		SourceURL:   params.SourceURL,
		Targets:     params.Targets,
		Status:      StatusPending,
		ScheduledAt: params.ScheduledAt,
		Position:    maxPos + 1,
		CreatedAt:   time.Now().UTC(),
	}
	if params.ScheduledAt != nil {
		item.Status = StatusScheduled
	}

	if err := s.repo.Insert(item); err != nil {
		return nil, fmt.Errorf("failed to insert queue item: %w", err)
	}

	return &item, nil
}

// Get returns a single item, ErrNotFound when the id does not exist.
func (s *Service) Get(id string) (*Item, error) {
	return s.repo.Get(id)
}

// List returns items ordered by position. An empty status returns all.
func (s *Service) List(status Status) ([]Item, error) {
	return s.repo.List(status)
}

// SetStatus performs a manual status transition. Setting uploaded stamps
// UploadedAt. Uploaded and failed are terminal for manual transitions.
func (s *Service) SetStatus(id string, status Status) (*Item, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	item, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	if item.Status != status && (item.Status == StatusUploaded || item.Status == StatusFailed) {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, item.Status)
	}

	var uploadedAt *time.Time
	if status == StatusUploaded {
		now := time.Now().UTC()
		uploadedAt = &now
	}

	if err := s.repo.UpdateStatus(id, status, uploadedAt); err != nil {
		return nil, err
	}

	item.Status = status
	if uploadedAt != nil {
		item.UploadedAt = uploadedAt
	}
	return item, nil
}

// Delete removes an item. Deletion is the only way out of a terminal
// status and is always an explicit operator action.
func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

// PublishNow pushes a single item to the posting collaborator. An item with
// a future ScheduledAt is handed off as a scheduled post for that time,
// anything else posts immediately. On success the item transitions to
// uploaded, on failure to failed and the triggering error is returned to the
// caller. There is no automatic retry; the operator re-triggers a failed
// item by calling PublishNow again.
func (s *Service) PublishNow(ctx context.Context, id string) (*Item, error) {
	item, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	profileIDs := s.resolveProfiles(item.Targets)
	if len(profileIDs) == 0 {
		// Hard precondition failure, no external call is made.
		return nil, ErrNoDestination
	}

	publish := func() error {
		if item.ScheduledAt != nil && item.ScheduledAt.After(time.Now()) {
			return s.pub.Schedule(ctx, item.Content, profileIDs, *item.ScheduledAt)
		}
		return s.pub.Publish(ctx, item.Content, profileIDs)
	}

	if err := publish(); err != nil {
		if updateErr := s.repo.UpdateStatus(id, StatusFailed, nil); updateErr != nil {
			slog.Error("Failed to mark queue item as failed", "id", id, "error", updateErr)
		}
		item.Status = StatusFailed
		return item, fmt.Errorf("publish failed: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(id, StatusUploaded, &now); err != nil {
		return nil, err
	}

	item.Status = StatusUploaded
	item.UploadedAt = &now
	return item, nil
}

// BatchAssignDates assigns startAt + i*interval to the i-th id in the
// caller-supplied order and transitions each to scheduled. Per-id failures
// are collected and reported, processing continues with the remaining ids.
func (s *Service) BatchAssignDates(ids []string, startAt time.Time, intervalHours int) BatchResult {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	interval := time.Duration(intervalHours) * time.Hour

	var result BatchResult
	for i, id := range ids {
		scheduledAt := startAt.Add(time.Duration(i) * interval)

		if err := s.repo.UpdateSchedule(id, scheduledAt); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{ID: id, Message: err.Error()})
			continue
		}
		result.Succeeded++
	}

	return result
}

func (s *Service) resolveProfiles(targets []string) []string {
	var profileIDs []string
	for _, target := range targets {
		if id := s.profileIDs[target]; id != "" {
			profileIDs = append(profileIDs, id)
		}
	}
	return profileIDs
}
