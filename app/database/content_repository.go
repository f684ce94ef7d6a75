package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/joonpark/curate-press/app/ingest"
)

// ContentRepository handles database operations for scraped contents
type ContentRepository struct {
	db *DB
}

func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Store persists a normalized item admitted by ingestion.
func (r *ContentRepository) Store(item ingest.NormalizedItem) error {
	var publishedAt *time.Time
	if !item.PublishedAt.IsZero() {
		publishedAt = &item.PublishedAt
	}

	_, err := r.db.Exec(`
		INSERT INTO contents (
			id, platform, title, raw_text, author, source_url,
			category, published_at, scraped_at, is_body_fetched
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, string(item.Platform), item.Title, item.RawText, item.Author,
		item.SourceURL, item.Category, publishedAt, item.ScrapedAt,
		item.IsBodyFetched)

	if err != nil {
		return fmt.Errorf("failed to store content: %w", err)
	}

	return nil
}

// Get retrieves a single content by ID
func (r *ContentRepository) Get(id string) (*Content, error) {
	var c Content
	err := r.db.QueryRow(`
		SELECT id, platform, title, raw_text, author, source_url,
		       category, published_at, scraped_at, is_body_fetched, created_at
		FROM contents
		WHERE id = ?
	`, id).Scan(
		&c.ID, &c.Platform, &c.Title, &c.RawText, &c.Author, &c.SourceURL,
		&c.Category, &c.PublishedAt, &c.ScrapedAt, &c.IsBodyFetched, &c.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &c, nil
}

// List returns contents, newest first, optionally filtered by category.
func (r *ContentRepository) List(category string, limit int) ([]Content, error) {
	query := `
		SELECT id, platform, title, raw_text, author, source_url,
		       category, published_at, scraped_at, is_body_fetched, created_at
		FROM contents`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		var c Content
		err := rows.Scan(
			&c.ID, &c.Platform, &c.Title, &c.RawText, &c.Author, &c.SourceURL,
			&c.Category, &c.PublishedAt, &c.ScrapedAt, &c.IsBodyFetched, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

// KnownTitles returns the set of stored titles for a category, keyed for
// duplicate detection.
func (r *ContentRepository) KnownTitles(category string) (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT title FROM contents WHERE category = ? AND title != ''`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get known titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[string]bool)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		titles[ingest.TitleKey(title)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating title rows: %w", err)
	}

	return titles, nil
}

// UpdateBody replaces the raw text with a fully fetched body and records the
// author when the scraper found one.
func (r *ContentRepository) UpdateBody(id, rawText, author string) error {
	result, err := r.db.Exec(`
		UPDATE contents
		SET raw_text = ?,
		    author = CASE WHEN ? != '' THEN ? ELSE author END,
		    is_body_fetched = 1
		WHERE id = ?
	`, rawText, author, author, id)

	if err != nil {
		return fmt.Errorf("failed to update content body: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("content %s not found", id)
	}

	return nil
}

// GetCount returns the total number of stored contents
func (r *ContentRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM contents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get content count: %w", err)
	}
	return count, nil
}
