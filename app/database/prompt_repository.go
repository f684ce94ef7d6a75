package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PromptRepository handles database operations for summarization prompt
// presets
type PromptRepository struct {
	db *DB
}

func NewPromptRepository(db *DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// List returns prompts, default presets first, optionally filtered by
// category.
func (r *PromptRepository) List(category string) ([]Prompt, error) {
	query := `
		SELECT id, name, category, prompt_text, is_default, created_at, updated_at
		FROM prompts`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY is_default DESC, created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		var p Prompt
		err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.PromptText, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt row: %w", err)
		}
		prompts = append(prompts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prompt rows: %w", err)
	}

	return prompts, nil
}

// Create inserts a new prompt preset
func (r *PromptRepository) Create(name, category, promptText string, isDefault bool) (*Prompt, error) {
	id := uuid.NewString()

	_, err := r.db.Exec(`
		INSERT INTO prompts (id, name, category, prompt_text, is_default)
		VALUES (?, ?, ?, ?, ?)
	`, id, name, category, promptText, isDefault)

	if err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	return r.get(id)
}

// UpsertByCategory updates the prompt for a category or creates it when
// none exists. An empty name falls back to the category itself.
func (r *PromptRepository) UpsertByCategory(category, name, promptText string) (*Prompt, error) {
	if name == "" {
		name = category
	}

	var id string
	err := r.db.QueryRow(`SELECT id FROM prompts WHERE category = ? LIMIT 1`, category).Scan(&id)
	if err == sql.ErrNoRows {
		return r.Create(name, category, promptText, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check existing prompt: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE prompts
		SET name = ?, prompt_text = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, promptText, id)

	if err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}

	return r.get(id)
}

// GetDefault returns the preferred prompt for a category: the default
// preset when one is flagged, the newest otherwise. Nil when the category
// has no prompts.
func (r *PromptRepository) GetDefault(category string) (*Prompt, error) {
	var p Prompt
	err := r.db.QueryRow(`
		SELECT id, name, category, prompt_text, is_default, created_at, updated_at
		FROM prompts
		WHERE category = ?
		ORDER BY is_default DESC, created_at DESC
		LIMIT 1
	`, category).Scan(&p.ID, &p.Name, &p.Category, &p.PromptText, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default prompt: %w", err)
	}

	return &p, nil
}

// Delete removes a prompt preset
func (r *PromptRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM prompts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("prompt %s not found", id)
	}

	return nil
}

func (r *PromptRepository) get(id string) (*Prompt, error) {
	var p Prompt
	err := r.db.QueryRow(`
		SELECT id, name, category, prompt_text, is_default, created_at, updated_at
		FROM prompts
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.PromptText, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}

	return &p, nil
}
