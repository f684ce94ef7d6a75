package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StoreClient talks to a property-typed destination store (a Notion-style
// database API). Only schema introspection and page creation are needed.
type StoreClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiVersion string
}

func NewStoreClient(httpClient *http.Client, baseURL, apiKey, apiVersion string) *StoreClient {
	return &StoreClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiVersion: apiVersion,
	}
}

type schemaResponse struct {
	Properties map[string]struct {
		Type        string         `json:"type"`
		Status      *optionsHolder `json:"status"`
		Select      *optionsHolder `json:"select"`
		MultiSelect *optionsHolder `json:"multi_select"`
	} `json:"properties"`
}

type optionsHolder struct {
	Options []struct {
		Name string `json:"name"`
	} `json:"options"`
}

// GetSchema introspects the destination database's property schema.
func (c *StoreClient) GetSchema(ctx context.Context, databaseID string) (*Schema, error) {
	url := fmt.Sprintf("%s/databases/%s", c.baseURL, databaseID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schema fetch failed: %s", readAPIError(resp))
	}

	var decoded schemaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	schema := &Schema{Properties: make(map[string]Property, len(decoded.Properties))}
	for name, raw := range decoded.Properties {
		prop := Property{Type: raw.Type}
		for _, holder := range []*optionsHolder{raw.Status, raw.Select, raw.MultiSelect} {
			if holder == nil {
				continue
			}
			for _, option := range holder.Options {
				prop.Options = append(prop.Options, option.Name)
			}
		}
		schema.Properties[name] = prop
	}

	return schema, nil
}

// CreatePage creates one page with the given property payload and the
// content laid out as paragraph blocks under a heading.
func (c *StoreClient) CreatePage(ctx context.Context, databaseID string, fields map[string]any, content string) error {
	children := []any{
		map[string]any{
			"object": "block",
			"type":   "heading_2",
			"heading_2": map[string]any{
				"rich_text": []any{richText("Generated content")},
			},
		},
	}
	for _, chunk := range Chunk(content, BlockCharLimit) {
		children = append(children, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{richText(chunk)},
			},
		})
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": fields,
		"children":   children,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal page payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("page creation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("page creation failed: %s", readAPIError(resp))
	}

	return nil
}

func (c *StoreClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.apiVersion)
}

func richText(text string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": text},
	}
}

func readAPIError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}

	var decoded struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &decoded) == nil && decoded.Message != "" {
		return fmt.Sprintf("%s: %s", resp.Status, decoded.Message)
	}
	return fmt.Sprintf("%s: %s", resp.Status, string(data))
}
