package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joonpark/curate-press/app/content"
	"github.com/joonpark/curate-press/app/database"
	"github.com/joonpark/curate-press/app/export"
	"github.com/joonpark/curate-press/app/ingest"
	"github.com/joonpark/curate-press/app/jobs"
	"github.com/joonpark/curate-press/app/queue"
	"github.com/joonpark/curate-press/app/scrape"
	"github.com/joonpark/curate-press/app/sources"
	"github.com/joonpark/curate-press/app/tasks"
)

func NewHandler(configCache *sources.Cache, sourceRepo *database.SourceRepository,
	contentRepo *database.ContentRepository, queueRepo *database.QueueRepository,
	promptRepo *database.PromptRepository, queueService *queue.Service,
	exporter *export.Runner, summarizer SummarizerInterface,
	jobRegistry *jobs.Registry, scheduler tasks.TaskSchedulerInterface,
	fetcher *ingest.Fetcher, scrapers *scrape.Set, storeDatabaseID string) *Handler {
	return &Handler{
		configCache:     configCache,
		sourceRepo:      sourceRepo,
		contentRepo:     contentRepo,
		queueRepo:       queueRepo,
		promptRepo:      promptRepo,
		queue:           queueService,
		exporter:        exporter,
		summarizer:      summarizer,
		jobs:            jobRegistry,
		scheduler:       scheduler,
		fetcher:         fetcher,
		scrapers:        scrapers,
		storeDatabaseID: storeDatabaseID,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"loaded_configurations": h.configCache.GetConfigCount(),
	}

	if sourceCount, err := h.sourceRepo.GetCount(); err == nil {
		stats["sources"] = sourceCount
	}
	if contentCount, err := h.contentRepo.GetCount(); err == nil {
		stats["contents"] = contentCount
	}
	if queueCounts, err := h.queueRepo.GetCountByStatus(); err == nil {
		stats["queue"] = queueCounts
	}
	stats["jobs"] = len(h.jobs.Snapshot())

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	list := make([]map[string]interface{}, 0, len(configs))
	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":             sourceConfig.Name,
			"url":              sourceConfig.Source.URL,
			"category":         sourceConfig.Source.Category,
			"enabled":          sourceConfig.Settings.Enabled,
			"max_items":        sourceConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
		}

		if source, err := h.sourceRepo.GetByName(sourceConfig.Name); err == nil && source != nil {
			sourceInfo["last_fetched_at"] = source.LastFetchedAt
			sourceInfo["next_fetch_at"] = source.NextFetchAt
		}

		list = append(list, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": list,
		"total":   len(list),
	})
}

func (h *Handler) APIFetchSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	sourceConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, sourceConfig, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue sync task"})
		return
	}

	fetchTask := tasks.NewFetchSourceTask(name, sourceConfig, h.fetcher, h.sourceRepo, h.contentRepo)
	if err := h.scheduler.EnqueueTask(fetchTask); err != nil {
		slog.Error("Error enqueueing fetch task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue fetch task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"source":  name,
		"tasks": []gin.H{
			{"id": syncTask.ID, "type": syncTask.Type},
			{"id": fetchTask.ID, "type": fetchTask.Type},
		},
	})
}

func (h *Handler) APIListContents(c *gin.Context) {
	category := c.Query("category")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	contents, err := h.contentRepo.List(category, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_contents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]map[string]interface{}, 0, len(contents))
	for _, item := range contents {
		list = append(list, map[string]interface{}{
			"id":              item.ID,
			"platform":        item.Platform,
			"title":           item.Title,
			"author":          item.Author,
			"source_url":      item.SourceURL,
			"category":        item.Category,
			"published_at":    item.PublishedAt,
			"scraped_at":      item.ScrapedAt,
			"is_body_fetched": item.IsBodyFetched,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"contents": list,
		"total":    len(list),
	})
}

func (h *Handler) APIGetContent(c *gin.Context) {
	stored, ok := h.loadContent(c)
	if !ok {
		return
	}

	doc := content.ParseDocument(stored.RawText)

	comments := make([]map[string]interface{}, 0, len(doc.Comments))
	for _, line := range doc.Comments {
		comments = append(comments, map[string]interface{}{
			"text":     line.Text,
			"is_reply": line.IsReply,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"id":              stored.ID,
		"platform":        stored.Platform,
		"title":           stored.Title,
		"author":          stored.Author,
		"source_url":      stored.SourceURL,
		"category":        stored.Category,
		"published_at":    stored.PublishedAt,
		"scraped_at":      stored.ScrapedAt,
		"is_body_fetched": stored.IsBodyFetched,
		"raw_text":        stored.RawText,
		"document": map[string]interface{}{
			"has_structure": doc.HasStructure,
			"main_body":     doc.MainBody,
			"continuations": doc.Continuations,
			"comments":      comments,
		},
	})
}

func (h *Handler) APIScrapeContent(c *gin.Context) {
	stored, ok := h.loadContent(c)
	if !ok {
		return
	}

	task := tasks.NewFetchBodyTask(stored.ID, h.scrapers, h.contentRepo)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing fetch body task", "content_id", stored.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue scrape task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"content_id": stored.ID,
		"task":       gin.H{"id": task.ID, "type": task.Type},
	})
}

func (h *Handler) APIProcessContent(c *gin.Context) {
	stored, ok := h.loadContent(c)
	if !ok {
		return
	}

	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	instructions := req.Instructions
	if instructions == "" {
		preset, err := h.promptRepo.GetDefault(stored.Category)
		if err != nil {
			slog.Error("Database error", "operation", "get_default_prompt", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if preset == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No instructions given and no prompt preset for category"})
			return
		}
		instructions = preset.PromptText
	}

	h.jobs.Start(stored.ID)

	go func(id, text, instructions string) {
		result, err := h.summarizer.Summarize(text, instructions)
		if err != nil {
			slog.Error("Summarization failed", "content_id", id, "error", err)
			h.jobs.Fail(id, err.Error())
			return
		}
		h.jobs.Complete(id, result)
	}(stored.ID, stored.RawText, instructions)

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"content_id": stored.ID,
		"job":        "/api/jobs/" + stored.ID,
	})
}

func (h *Handler) APIGetJob(c *gin.Context) {
	id := c.Param("id")

	job, ok := h.jobs.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *Handler) APIListPrompts(c *gin.Context) {
	category := c.Query("category")
	if category == "all" {
		category = ""
	}

	prompts, err := h.promptRepo.List(category)
	if err != nil {
		slog.Error("Database error", "operation", "list_prompts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]promptResponse, 0, len(prompts))
	for i := range prompts {
		list = append(list, toPromptResponse(&prompts[i]))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"prompts": list,
		"total":   len(list),
	})
}

func (h *Handler) APICreatePrompt(c *gin.Context) {
	var req createPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prompt, err := h.promptRepo.Create(req.Name, req.Category, req.PromptText, req.IsDefault)
	if err != nil {
		slog.Error("Database error", "operation", "create_prompt", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, toPromptResponse(prompt))
}

func (h *Handler) APIUpsertPrompt(c *gin.Context) {
	var req upsertPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	prompt, err := h.promptRepo.UpsertByCategory(req.Category, req.Name, req.PromptText)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_prompt", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, toPromptResponse(prompt))
}

func (h *Handler) APIDeletePrompt(c *gin.Context) {
	if err := h.promptRepo.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIEnqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	params := queue.EnqueueParams{
		Content:   req.Content,
		Targets:   req.Targets,
		Title:     req.Title,
		Category:  req.Category,
		SourceURL: req.SourceURL,
	}

	if req.ScheduledAt != "" {
		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scheduled_at, expected RFC3339"})
			return
		}
		params.ScheduledAt = &scheduledAt
	}

	item, err := h.queue.Enqueue(params)
	if err != nil {
		slog.Error("Enqueue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue item"})
		return
	}

	c.JSON(http.StatusCreated, toQueueItemResponse(item))
}

func (h *Handler) APIListQueue(c *gin.Context) {
	status := queue.Status(c.Query("status"))
	if status != "" && !queue.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	items, err := h.queue.List(status)
	if err != nil {
		slog.Error("Database error", "operation", "list_queue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	list := make([]queueItemResponse, 0, len(items))
	for i := range items {
		list = append(list, toQueueItemResponse(&items[i]))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"items": list,
		"total": len(list),
	})
}

func (h *Handler) APIGetQueueItem(c *gin.Context) {
	item, err := h.queue.Get(c.Param("id"))
	if err != nil {
		h.queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQueueItemResponse(item))
}

func (h *Handler) APIUpdateQueueStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing status"})
		return
	}

	item, err := h.queue.SetStatus(c.Param("id"), queue.Status(req.Status))
	if err != nil {
		h.queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQueueItemResponse(item))
}

func (h *Handler) APIDeleteQueueItem(c *gin.Context) {
	if err := h.queue.Delete(c.Param("id")); err != nil {
		h.queueError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIBatchDates(c *gin.Context) {
	var req batchDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_at, expected RFC3339"})
		return
	}

	result := h.queue.BatchAssignDates(req.IDs, startAt, req.IntervalHours)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIBatchExport(c *gin.Context) {
	var req batchExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	databaseID := req.DatabaseID
	if databaseID == "" {
		databaseID = h.storeDatabaseID
	}
	if databaseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No export database configured"})
		return
	}

	result, err := h.exporter.Run(c.Request.Context(), databaseID, req.IDs)
	if err != nil {
		slog.Error("Export batch aborted", "database", databaseID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read destination schema", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIPublishQueueItem(c *gin.Context) {
	item, err := h.queue.PublishNow(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, queue.ErrNoDestination) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No destination resolves to a configured profile"})
			return
		}
		if errors.Is(err, queue.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Queue item not found"})
			return
		}
		// Publish failure: the item has been marked failed, report both.
		response := gin.H{"error": err.Error()}
		if item != nil {
			response["item"] = toQueueItemResponse(item)
		}
		c.JSON(http.StatusBadGateway, response)
		return
	}

	c.JSON(http.StatusOK, toQueueItemResponse(item))
}

func (h *Handler) loadContent(c *gin.Context) (*database.Content, bool) {
	id := c.Param("id")

	stored, err := h.contentRepo.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return nil, false
	}

	return stored, true
}

func (h *Handler) queueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Queue item not found"})
	case errors.Is(err, queue.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
	case errors.Is(err, queue.ErrTerminalStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "Item is in a terminal status"})
	default:
		slog.Error("Queue operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}
