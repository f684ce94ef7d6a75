package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Actor identifiers for the hosted scraping marketplace, one per platform
// kind. Each actor normalizes its platform's post page into the shared
// post/comments item shape.
const (
	actorVideo        = "curate/video-post-scraper"
	actorMicroblog    = "curate/microblog-post-scraper"
	actorProfessional = "curate/professional-post-scraper"
	actorThread       = "curate/thread-post-scraper"
)

// ActorClient runs hosted scraping actors synchronously and returns their
// dataset items.
type ActorClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewActorClient(httpClient *http.Client, baseURL, token string) *ActorClient {
	return &ActorClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
	}
}

// RunSync starts the actor with the given input, waits for it to finish
// and returns the raw dataset items.
func (c *ActorClient) RunSync(ctx context.Context, actorID string, input any) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("scraping API token is not configured")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("actor run failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("actor run failed: %d %s", resp.StatusCode, string(data))
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode actor results: %w", err)
	}

	return items, nil
}
