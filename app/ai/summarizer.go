package ai

import (
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const defaultSystemPrompt = `You rewrite scraped social and web content into a single polished post.
Keep the author's core claims, drop boilerplate, and follow the operator's instructions exactly.`

// Summarizer turns a raw content blob into a finished post text by calling
// the model API. Treated as a pure function of (text, instructions); all
// state lives with the caller.
type Summarizer struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

func NewSummarizer(apiKey, model string, maxTokens int, temperature float64) *Summarizer {
	return &Summarizer{
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Summarize generates a post from text using the given instructions.
func (s *Summarizer) Summarize(text, instructions string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("model API key is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to summarize")
	}

	userPrompt := fmt.Sprintf("%s\n\nSource content:\n%s", instructions, text)

	settings := types.RequestSettings{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	response, err := anthropic.PromptWithSettings(defaultSystemPrompt, userPrompt, "", s.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("summarize call failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in model response")
	}

	return response.Content[0].Text, nil
}
