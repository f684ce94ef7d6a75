package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joonpark/curate-press/app/database"
	"github.com/joonpark/curate-press/app/export"
	"github.com/joonpark/curate-press/app/ingest"
	"github.com/joonpark/curate-press/app/jobs"
	"github.com/joonpark/curate-press/app/queue"
	"github.com/joonpark/curate-press/app/sources"
	"github.com/joonpark/curate-press/app/tasks"
)

const testAPIKey = "test-key"

type fakePublisher struct {
	calls         int
	scheduleCalls int
	err           error
}

func (f *fakePublisher) Publish(ctx context.Context, text string, profileIDs []string) error {
	f.calls++
	return f.err
}

func (f *fakePublisher) Schedule(ctx context.Context, text string, profileIDs []string, at time.Time) error {
	f.scheduleCalls++
	return f.err
}

type fakeStore struct {
	schema *export.Schema
	pages  int
}

func (f *fakeStore) GetSchema(ctx context.Context, databaseID string) (*export.Schema, error) {
	return f.schema, nil
}

func (f *fakeStore) CreatePage(ctx context.Context, databaseID string, fields map[string]any, content string) error {
	f.pages++
	return nil
}

type fakeSummarizer struct{}

func (f *fakeSummarizer) Summarize(text, instructions string) (string, error) {
	return "summary of: " + text, nil
}

type fakeScheduler struct {
	enqueued []tasks.TaskInterface
}

func (f *fakeScheduler) Start() {}
func (f *fakeScheduler) Stop()  {}
func (f *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	f.enqueued = append(f.enqueued, task)
	return nil
}

type testEnv struct {
	router      *gin.Engine
	contentRepo *database.ContentRepository
	queueRepo   *database.QueueRepository
	promptRepo  *database.PromptRepository
	publisher   *fakePublisher
	scheduler   *fakeScheduler
	jobs        *jobs.Registry
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sourceRepo := database.NewSourceRepository(db)
	contentRepo := database.NewContentRepository(db)
	queueRepo := database.NewQueueRepository(db)
	promptRepo := database.NewPromptRepository(db)

	publisher := &fakePublisher{}
	queueService := queue.NewService(queueRepo, publisher, map[string]string{"microblog": "mb-1"})

	store := &fakeStore{schema: &export.Schema{Properties: map[string]export.Property{
		"Name": {Type: "title"},
	}}}
	exporter := export.NewRunner(store, queueRepo)

	registry := jobs.NewRegistry()
	scheduler := &fakeScheduler{}
	fetcher := ingest.NewFetcher(http.DefaultClient, "test-agent")

	handler := NewHandler(sources.NewCache(t.TempDir()), sourceRepo, contentRepo,
		queueRepo, promptRepo, queueService, exporter, &fakeSummarizer{}, registry,
		scheduler, fetcher, nil, "db-1")

	return &testEnv{
		router:      NewServer(handler, testAPIKey),
		contentRepo: contentRepo,
		queueRepo:   queueRepo,
		promptRepo:  promptRepo,
		publisher:   publisher,
		scheduler:   scheduler,
		jobs:        registry,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest("GET", "/api/queue", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/queue", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health endpoint, got %d", w.Code)
	}
}

func TestQueueLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, "POST", "/api/queue", map[string]any{
		"content":          "hello world",
		"target_platforms": []string{"microblog"},
		"title":            "Hello",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from enqueue, got %d: %s", w.Code, w.Body.String())
	}

	var created queueItemResponse
	decodeBody(t, w, &created)
	if created.Status != "pending" {
		t.Errorf("Expected pending status, got %q", created.Status)
	}
	if created.Position != 1 {
		t.Errorf("Expected position 1, got %d", created.Position)
	}

	w = env.request(t, "GET", "/api/queue/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from get, got %d", w.Code)
	}

	w = env.request(t, "PATCH", "/api/queue/"+created.ID+"/status", map[string]any{"status": "uploaded"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from status update, got %d: %s", w.Code, w.Body.String())
	}
	var updated queueItemResponse
	decodeBody(t, w, &updated)
	if updated.Status != "uploaded" || updated.UploadedAt == nil {
		t.Errorf("Expected uploaded item with timestamp, got %+v", updated)
	}

	// Terminal status rejects further manual transitions.
	w = env.request(t, "PATCH", "/api/queue/"+created.ID+"/status", map[string]any{"status": "pending"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for transition out of terminal status, got %d", w.Code)
	}

	w = env.request(t, "DELETE", "/api/queue/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from delete, got %d", w.Code)
	}

	w = env.request(t, "GET", "/api/queue/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestBatchDates(t *testing.T) {
	env := setupTestEnv(t)

	var ids []string
	for i := 0; i < 3; i++ {
		w := env.request(t, "POST", "/api/queue", map[string]any{
			"content":          fmt.Sprintf("post %d", i),
			"target_platforms": []string{"microblog"},
		})
		var created queueItemResponse
		decodeBody(t, w, &created)
		ids = append(ids, created.ID)
	}

	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	w := env.request(t, "POST", "/api/queue/batch-dates", map[string]any{
		"ids":            ids,
		"start_at":       start.Format(time.RFC3339),
		"interval_hours": 24,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from batch-dates, got %d: %s", w.Code, w.Body.String())
	}

	var result queue.BatchResult
	decodeBody(t, w, &result)
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Fatalf("Expected 3 succeeded, got %+v", result)
	}

	for i, id := range ids {
		item, err := env.queueRepo.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		expected := start.Add(time.Duration(i) * 24 * time.Hour)
		if item.ScheduledAt == nil || !item.ScheduledAt.Equal(expected) {
			t.Errorf("Item %d: expected scheduled at %v, got %v", i, expected, item.ScheduledAt)
		}
		if item.Status != queue.StatusScheduled {
			t.Errorf("Item %d: expected scheduled status, got %q", i, item.Status)
		}
	}
}

func TestBatchExport(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, "POST", "/api/queue", map[string]any{
		"content":          "export me",
		"target_platforms": []string{"microblog"},
		"title":            "Export",
	})
	var created queueItemResponse
	decodeBody(t, w, &created)

	w = env.request(t, "POST", "/api/queue/batch-export", map[string]any{
		"ids": []string{created.ID, "missing-id"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from batch-export, got %d: %s", w.Code, w.Body.String())
	}

	var result queue.BatchResult
	decodeBody(t, w, &result)
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("Expected 1 succeeded and 1 failed, got %+v", result)
	}

	item, err := env.queueRepo.Get(created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item.Status != queue.StatusUploaded {
		t.Errorf("Expected uploaded after export, got %q", item.Status)
	}
}

func TestPublishNow(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, "POST", "/api/queue", map[string]any{
		"content":          "publish me",
		"target_platforms": []string{"microblog"},
	})
	var created queueItemResponse
	decodeBody(t, w, &created)

	w = env.request(t, "POST", "/api/queue/"+created.ID+"/publish", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from publish, got %d: %s", w.Code, w.Body.String())
	}
	if env.publisher.calls != 1 {
		t.Errorf("Expected 1 publish call, got %d", env.publisher.calls)
	}

	var published queueItemResponse
	decodeBody(t, w, &published)
	if published.Status != "uploaded" {
		t.Errorf("Expected uploaded status, got %q", published.Status)
	}
}

func TestPublishScheduledItemHandsOffSchedule(t *testing.T) {
	env := setupTestEnv(t)

	at := time.Now().Add(48 * time.Hour).UTC()
	w := env.request(t, "POST", "/api/queue", map[string]any{
		"content":          "publish later",
		"target_platforms": []string{"microblog"},
		"scheduled_at":     at.Format(time.RFC3339),
	})
	var created queueItemResponse
	decodeBody(t, w, &created)

	w = env.request(t, "POST", "/api/queue/"+created.ID+"/publish", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from publish, got %d: %s", w.Code, w.Body.String())
	}
	if env.publisher.scheduleCalls != 1 || env.publisher.calls != 0 {
		t.Errorf("Expected 1 schedule call and 0 immediate calls, got %d/%d",
			env.publisher.scheduleCalls, env.publisher.calls)
	}

	var published queueItemResponse
	decodeBody(t, w, &published)
	if published.Status != "uploaded" {
		t.Errorf("Expected uploaded status after handoff, got %q", published.Status)
	}
}

func TestPublishNowNoDestination(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, "POST", "/api/queue", map[string]any{
		"content":          "nowhere to go",
		"target_platforms": []string{"unconfigured"},
	})
	var created queueItemResponse
	decodeBody(t, w, &created)

	w = env.request(t, "POST", "/api/queue/"+created.ID+"/publish", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unresolvable destinations, got %d", w.Code)
	}
	if env.publisher.calls != 0 {
		t.Errorf("Expected no publish calls, got %d", env.publisher.calls)
	}
}

func TestContentEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	item := ingest.NormalizedItem{
		ID:        "c1",
		Platform:  "thread",
		Title:     "Structured Post",
		RawText:   "[MAIN]\nBody text.\n\n[COMMENTS]\n- reader: nice",
		SourceURL: "https://threads.net/@u/post/1",
		Category:  "tech",
		ScrapedAt: time.Now().UTC(),
	}
	if err := env.contentRepo.Store(item); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	w := env.request(t, "GET", "/api/contents?category=tech", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from list, got %d", w.Code)
	}
	var list struct {
		Total int `json:"total"`
	}
	decodeBody(t, w, &list)
	if list.Total != 1 {
		t.Errorf("Expected 1 content, got %d", list.Total)
	}

	w = env.request(t, "GET", "/api/contents/c1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from get, got %d", w.Code)
	}
	var detail struct {
		Document struct {
			HasStructure bool   `json:"has_structure"`
			MainBody     string `json:"main_body"`
		} `json:"document"`
	}
	decodeBody(t, w, &detail)
	if !detail.Document.HasStructure {
		t.Error("Expected structured document")
	}
	if detail.Document.MainBody != "Body text." {
		t.Errorf("Expected parsed main body, got %q", detail.Document.MainBody)
	}

	w = env.request(t, "GET", "/api/contents/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown content, got %d", w.Code)
	}
}

func TestProcessContentJob(t *testing.T) {
	env := setupTestEnv(t)

	item := ingest.NormalizedItem{
		ID:        "c1",
		Platform:  "generic-web",
		Title:     "Article",
		RawText:   "long article text",
		SourceURL: "https://example.com/a",
		ScrapedAt: time.Now().UTC(),
	}
	if err := env.contentRepo.Store(item); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	w := env.request(t, "POST", "/api/contents/c1/process", map[string]any{
		"instructions": "make it short",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 from process, got %d: %s", w.Code, w.Body.String())
	}

	// The job runs in a goroutine; poll until it finishes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if job, ok := env.jobs.Get("c1"); ok && job.Status != jobs.StatusRunning {
			if job.Status != jobs.StatusDone {
				t.Fatalf("Expected done job, got %+v", job)
			}
			if job.Result != "summary of: long article text" {
				t.Errorf("Unexpected job result: %q", job.Result)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for job to finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w = env.request(t, "GET", "/api/jobs/c1", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from job status, got %d", w.Code)
	}
}

func TestPromptCRUD(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, "POST", "/api/prompts", map[string]any{
		"name":        "Tech digest",
		"category":    "tech",
		"prompt_text": "Summarize for engineers.",
		"is_default":  true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from create, got %d: %s", w.Code, w.Body.String())
	}
	var created promptResponse
	decodeBody(t, w, &created)
	if created.ID == "" || !created.IsDefault {
		t.Fatalf("Expected default prompt with id, got %+v", created)
	}

	w = env.request(t, "POST", "/api/prompts", map[string]any{
		"name":        "Lifestyle digest",
		"category":    "lifestyle",
		"prompt_text": "Summarize casually.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from create, got %d", w.Code)
	}

	w = env.request(t, "GET", "/api/prompts", nil)
	var list struct {
		Prompts []promptResponse `json:"prompts"`
		Total   int              `json:"total"`
	}
	decodeBody(t, w, &list)
	if list.Total != 2 {
		t.Fatalf("Expected 2 prompts, got %d", list.Total)
	}
	if !list.Prompts[0].IsDefault {
		t.Error("Expected default prompt listed first")
	}

	w = env.request(t, "GET", "/api/prompts?category=tech", nil)
	decodeBody(t, w, &list)
	if list.Total != 1 || list.Prompts[0].Category != "tech" {
		t.Errorf("Expected only the tech prompt, got %+v", list.Prompts)
	}

	w = env.request(t, "PATCH", "/api/prompts", map[string]any{
		"category":    "tech",
		"prompt_text": "Summarize tersely.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from upsert, got %d: %s", w.Code, w.Body.String())
	}
	var upserted promptResponse
	decodeBody(t, w, &upserted)
	if upserted.ID != created.ID {
		t.Errorf("Expected upsert to update the existing tech prompt, got new id %q", upserted.ID)
	}
	if upserted.PromptText != "Summarize tersely." {
		t.Errorf("Expected updated prompt text, got %q", upserted.PromptText)
	}

	// Upsert for an unseen category creates it, name defaulting to the
	// category.
	w = env.request(t, "PATCH", "/api/prompts", map[string]any{
		"category":    "finance",
		"prompt_text": "Summarize the numbers.",
	})
	decodeBody(t, w, &upserted)
	if upserted.Name != "finance" {
		t.Errorf("Expected name to default to category, got %q", upserted.Name)
	}

	w = env.request(t, "DELETE", "/api/prompts/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from delete, got %d", w.Code)
	}
	w = env.request(t, "DELETE", "/api/prompts/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, got %d", w.Code)
	}
}

func TestProcessContentFallsBackToPreset(t *testing.T) {
	env := setupTestEnv(t)

	item := ingest.NormalizedItem{
		ID:        "c2",
		Platform:  "generic-web",
		Title:     "Article",
		RawText:   "article body",
		SourceURL: "https://example.com/b",
		Category:  "tech",
		ScrapedAt: time.Now().UTC(),
	}
	if err := env.contentRepo.Store(item); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// No instructions and no preset for the category is an error.
	w := env.request(t, "POST", "/api/contents/c2/process", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without instructions or preset, got %d", w.Code)
	}

	if _, err := env.promptRepo.Create("Tech digest", "tech", "Summarize for engineers.", true); err != nil {
		t.Fatalf("Create prompt failed: %v", err)
	}

	w = env.request(t, "POST", "/api/contents/c2/process", map[string]any{})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 with category preset, got %d: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if job, ok := env.jobs.Get("c2"); ok && job.Status != jobs.StatusRunning {
			if job.Status != jobs.StatusDone {
				t.Fatalf("Expected done job, got %+v", job)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for job to finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScrapeContentEnqueuesTask(t *testing.T) {
	env := setupTestEnv(t)

	item := ingest.NormalizedItem{
		ID:        "c1",
		Platform:  "microblog",
		Title:     "Post",
		RawText:   "teaser",
		SourceURL: "https://x.com/u/status/1",
		ScrapedAt: time.Now().UTC(),
	}
	if err := env.contentRepo.Store(item); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	w := env.request(t, "POST", "/api/contents/c1/scrape", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 from scrape, got %d: %s", w.Code, w.Body.String())
	}

	if len(env.scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(env.scheduler.enqueued))
	}
	if env.scheduler.enqueued[0].GetType() != tasks.TaskTypeFetchBody {
		t.Errorf("Expected fetch_body task, got %q", env.scheduler.enqueued[0].GetType())
	}
}
