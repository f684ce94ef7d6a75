package database

import (
	"time"
)

// Source represents a content source record in the database
type Source struct {
	ID            string // Database UUID
	Name          string // Configuration source name derived from filename
	URL           string
	Category      string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Prompt represents a named summarization instruction preset
type Prompt struct {
	ID         string
	Name       string
	Category   string
	PromptText string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Content represents a scraped content record in the database
type Content struct {
	ID            string
	Platform      string
	Title         string
	RawText       string
	Author        string
	SourceURL     string
	Category      string
	PublishedAt   *time.Time
	ScrapedAt     time.Time
	IsBodyFetched bool
	CreatedAt     time.Time
}
