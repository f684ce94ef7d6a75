package api

import (
	"time"

	"github.com/joonpark/curate-press/app/ai"
	"github.com/joonpark/curate-press/app/database"
	"github.com/joonpark/curate-press/app/export"
	"github.com/joonpark/curate-press/app/ingest"
	"github.com/joonpark/curate-press/app/jobs"
	"github.com/joonpark/curate-press/app/queue"
	"github.com/joonpark/curate-press/app/scrape"
	"github.com/joonpark/curate-press/app/sources"
	"github.com/joonpark/curate-press/app/tasks"
)

type SummarizerInterface interface {
	Summarize(text, instructions string) (string, error)
}

var _ SummarizerInterface = (*ai.Summarizer)(nil)

type Handler struct {
	configCache     *sources.Cache
	sourceRepo      *database.SourceRepository
	contentRepo     *database.ContentRepository
	queueRepo       *database.QueueRepository
	promptRepo      *database.PromptRepository
	queue           *queue.Service
	exporter        *export.Runner
	summarizer      SummarizerInterface
	jobs            *jobs.Registry
	scheduler       tasks.TaskSchedulerInterface
	fetcher         *ingest.Fetcher
	scrapers        *scrape.Set
	storeDatabaseID string
}

type enqueueRequest struct {
	Content     string   `json:"content" binding:"required"`
	Targets     []string `json:"target_platforms"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	SourceURL   string   `json:"source_url"`
	ScheduledAt string   `json:"scheduled_at"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type batchDatesRequest struct {
	IDs           []string `json:"ids" binding:"required"`
	StartAt       string   `json:"start_at" binding:"required"`
	IntervalHours int      `json:"interval_hours"`
}

type batchExportRequest struct {
	IDs        []string `json:"ids" binding:"required"`
	DatabaseID string   `json:"database_id"`
}

type processRequest struct {
	Instructions string `json:"instructions"`
}

type createPromptRequest struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category" binding:"required"`
	PromptText string `json:"prompt_text" binding:"required"`
	IsDefault  bool   `json:"is_default"`
}

type upsertPromptRequest struct {
	Category   string `json:"category" binding:"required"`
	PromptText string `json:"prompt_text" binding:"required"`
	Name       string `json:"name"`
}

type promptResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	PromptText string    `json:"prompt_text"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPromptResponse(p *database.Prompt) promptResponse {
	return promptResponse{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		PromptText: p.PromptText,
		IsDefault:  p.IsDefault,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type queueItemResponse struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Title       string     `json:"title,omitempty"`
	Category    string     `json:"category,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	Targets     []string   `json:"target_platforms"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toQueueItemResponse(item *queue.Item) queueItemResponse {
	targets := item.Targets
	if targets == nil {
		targets = []string{}
	}
	return queueItemResponse{
		ID:          item.ID,
		Content:     item.Content,
		Title:       item.Title,
		Category:    item.Category,
		SourceURL:   item.SourceURL,
		Targets:     targets,
		Status:      string(item.Status),
		ScheduledAt: item.ScheduledAt,
		UploadedAt:  item.UploadedAt,
		Position:    item.Position,
		CreatedAt:   item.CreatedAt,
	}
}
