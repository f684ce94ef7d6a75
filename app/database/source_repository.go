package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceRepository handles database operations for content sources
type SourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Upsert inserts or updates a source record keyed by its configuration name.
func (r *SourceRepository) Upsert(name, url, category string) error {
	_, err := r.db.Exec(`
		INSERT INTO sources (id, name, url, category)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			category = excluded.category,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), name, url, category)

	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

// GetByName retrieves a source by its configuration name
func (r *SourceRepository) GetByName(name string) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT id, name, url, COALESCE(category, ''),
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, name).Scan(
		&source.ID, &source.Name, &source.URL, &source.Category,
		&source.LastFetchedAt, &source.NextFetchAt,
		&source.CreatedAt, &source.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by name: %w", err)
	}

	return &source, nil
}

// GetDueForRefresh returns sources whose next fetch time has passed
func (r *SourceRepository) GetDueForRefresh() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, COALESCE(category, ''),
		       last_fetched_at, next_fetch_at, created_at, updated_at
		FROM sources
		WHERE next_fetch_at IS NULL OR next_fetch_at <= CURRENT_TIMESTAMP
		ORDER BY next_fetch_at
		LIMIT 50
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources due for refresh: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var source Source
		err := rows.Scan(
			&source.ID, &source.Name, &source.URL, &source.Category,
			&source.LastFetchedAt, &source.NextFetchAt,
			&source.CreatedAt, &source.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// UpdateNextFetch updates the fetch bookkeeping for a source
func (r *SourceRepository) UpdateNextFetch(name string, nextFetch time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET next_fetch_at = ?, last_fetched_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, nextFetch, name)

	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}

	return nil
}

// GetCount returns the total number of sources
func (r *SourceRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}
