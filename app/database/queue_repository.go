package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/joonpark/curate-press/app/queue"
)

// QueueRepository is the sqlite implementation of queue.Repository.
type QueueRepository struct {
	db *DB
}

var _ queue.Repository = (*QueueRepository)(nil)

func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Insert(item queue.Item) error {
	targets, err := json.Marshal(item.Targets)
	if err != nil {
		return fmt.Errorf("failed to encode targets: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO queue_items (
			id, content, title, category, source_url, targets,
			status, scheduled_at, uploaded_at, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Content, item.Title, item.Category, item.SourceURL,
		string(targets), string(item.Status), item.ScheduledAt,
		item.UploadedAt, item.Position, item.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}

	return nil
}

func (r *QueueRepository) Get(id string) (*queue.Item, error) {
	row := r.db.QueryRow(`
		SELECT id, content, title, category, source_url, targets,
		       status, scheduled_at, uploaded_at, position, created_at
		FROM queue_items
		WHERE id = ?
	`, id)

	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, queue.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}

	return item, nil
}

// List returns queue items ordered by position. An empty status returns
// everything.
func (r *QueueRepository) List(status queue.Status) ([]queue.Item, error) {
	builder := sq.Select(
		"id", "content", "title", "category", "source_url", "targets",
		"status", "scheduled_at", "uploaded_at", "position", "created_at",
	).From("queue_items").OrderBy("position")

	if status != "" {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	var items []queue.Item
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue item rows: %w", err)
	}

	return items, nil
}

func (r *QueueRepository) MaxPosition() (int, error) {
	var max int
	err := r.db.QueryRow("SELECT COALESCE(MAX(position), 0) FROM queue_items").Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	return max, nil
}

func (r *QueueRepository) UpdateStatus(id string, status queue.Status, uploadedAt *time.Time) error {
	result, err := r.db.Exec(`
		UPDATE queue_items
		SET status = ?, uploaded_at = ?
		WHERE id = ?
	`, string(status), uploadedAt, id)

	if err != nil {
		return fmt.Errorf("failed to update queue item status: %w", err)
	}

	return checkAffected(result)
}

func (r *QueueRepository) UpdateSchedule(id string, scheduledAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE queue_items
		SET scheduled_at = ?, status = ?
		WHERE id = ?
	`, scheduledAt, string(queue.StatusScheduled), id)

	if err != nil {
		return fmt.Errorf("failed to update queue item schedule: %w", err)
	}

	return checkAffected(result)
}

func (r *QueueRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM queue_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}

	return checkAffected(result)
}

// GetCountByStatus returns queue item counts grouped by status
func (r *QueueRepository) GetCountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM queue_items GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to get queue counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueItem(row rowScanner) (*queue.Item, error) {
	var item queue.Item
	var targets string
	var status string

	err := row.Scan(
		&item.ID, &item.Content, &item.Title, &item.Category, &item.SourceURL,
		&targets, &status, &item.ScheduledAt, &item.UploadedAt,
		&item.Position, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Status = queue.Status(status)
	if err := json.Unmarshal([]byte(targets), &item.Targets); err != nil {
		return nil, fmt.Errorf("failed to decode targets: %w", err)
	}

	return &item, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return queue.ErrNotFound
	}
	return nil
}
