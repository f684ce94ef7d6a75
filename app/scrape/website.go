package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// WebsiteScraper extracts the main article text from an arbitrary web page.
// The result has no continuation posts or comments, just a main body.
type WebsiteScraper struct {
	httpClient *http.Client
	userAgent  string
	converter  *md.Converter
}

func NewWebsiteScraper(httpClient *http.Client, userAgent string) *WebsiteScraper {
	return &WebsiteScraper{
		httpClient: httpClient,
		userAgent:  userAgent,
		converter:  md.NewConverter("", true, nil),
	}
}

func (s *WebsiteScraper) Fetch(ctx context.Context, url string) (*Result, error) {
	html, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}
	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from %s", url)
	}

	text, err := s.converter.ConvertString(article.Content)
	if err != nil {
		// Fall back to readability's plain-text rendering.
		text = article.TextContent
	}

	return &Result{
		Content: strings.TrimSpace(text),
		Author:  extractAuthor(html, article.Byline),
	}, nil
}

// extractAuthor prefers the page's author meta tags over readability's
// byline guess.
func extractAuthor(html, byline string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return byline
	}

	selectors := []string{
		`meta[name="author"]`,
		`meta[property="article:author"]`,
		`meta[property="og:site_name"]`,
	}
	for _, selector := range selectors {
		if value, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}

	return byline
}

func (s *WebsiteScraper) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
