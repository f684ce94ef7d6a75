package ingest

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Fetcher downloads a source's feed and turns its entries into candidates.
type Fetcher struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

// Run fetches the feed at url and returns its entries in feed order.
func (f *Fetcher) Run(ctx context.Context, url string) ([]Candidate, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		candidates = append(candidates, f.normalize(feed, item))
	}

	return candidates, nil
}

func (f *Fetcher) normalize(feed *gofeed.Feed, item *gofeed.Item) Candidate {
	candidate := Candidate{
		Title:   item.Title,
		URL:     item.Link,
		Summary: cmp.Or(item.Description, item.Content, item.Title),
	}

	if item.Author != nil && item.Author.Name != "" {
		candidate.Author = item.Author.Name
	} else {
		candidate.Author = feed.Title
	}

	if item.PublishedParsed != nil {
		candidate.PublishedAt = *item.PublishedParsed
	} else {
		candidate.PublishedAt = time.Now().UTC()
	}

	return candidate
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
