package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client posts text to connected social profiles through a Buffer-style
// scheduling API. The queue only cares about success or failure; richer
// response data is logged by callers when useful.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewClient(httpClient *http.Client, baseURL, accessToken string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		accessToken: accessToken,
	}
}

type updateResponse struct {
	Success bool `json:"success"`
	Updates []struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		ProfileID string `json:"profile_id"`
	} `json:"updates"`
}

// Publish creates a post for the given profiles. A nil scheduledAt posts
// immediately.
func (c *Client) Publish(ctx context.Context, text string, profileIDs []string) error {
	return c.publish(ctx, text, profileIDs, nil)
}

// Schedule creates a post queued for a future time.
func (c *Client) Schedule(ctx context.Context, text string, profileIDs []string, at time.Time) error {
	return c.publish(ctx, text, profileIDs, &at)
}

func (c *Client) publish(ctx context.Context, text string, profileIDs []string, scheduledAt *time.Time) error {
	if c.accessToken == "" {
		return fmt.Errorf("posting API access token is not configured")
	}
	if len(profileIDs) == 0 {
		return fmt.Errorf("no profile IDs given")
	}

	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("text", text)
	for i, id := range profileIDs {
		params.Set(fmt.Sprintf("profile_ids[%d]", i), id)
	}
	if scheduledAt != nil {
		params.Set("scheduled_at", strconv.FormatInt(scheduledAt.Unix(), 10))
	} else {
		params.Set("now", "true")
	}

	endpoint := c.baseURL + "/updates/create.json"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read posting API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posting API error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded updateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("failed to decode posting API response: %w", err)
	}
	if !decoded.Success {
		return fmt.Errorf("posting API rejected the update")
	}

	return nil
}
