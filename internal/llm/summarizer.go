// Package llm generates an optional plain-language narrative for a parsed
// timeline. The summary is cosmetic output only and never affects the
// timeline value.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/claimline/claimline/internal/model"
)

const systemPrompt = `You summarize medical claim timelines for a general audience.
Describe only the statistics you are given. Do not invent clinical details,
diagnoses, or advice. Keep the summary under 120 words.`

// Summarizer wraps an OpenAI-compatible chat client.
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer creates a summarizer from configuration. BaseURL may point
// at any OpenAI-compatible endpoint.
func NewSummarizer(cfg model.LLMConfig) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM summary requires an API key")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	m := cfg.Model
	if m == "" {
		m = "gpt-4o-mini"
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  m,
	}, nil
}

// Summarize produces a short narrative for the timeline.
func (s *Summarizer) Summarize(ctx context.Context, tl *model.Timeline) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(tl)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("llm summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm summary: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders the timeline statistics handed to the model.
func BuildPrompt(tl *model.Timeline) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timeline of %d medical claims from %s to %s.\n",
		tl.Metadata.TotalClaims, tl.DateRange.Start, tl.DateRange.End)

	counts := make(map[string]int)
	for _, c := range tl.Claims {
		counts[c.Type]++
	}
	for _, t := range tl.Metadata.ClaimTypes {
		fmt.Fprintf(&b, "- %s: %d claims\n", t, counts[t])
	}

	// A few recent entries give the model concrete anchors.
	limit := 5
	if len(tl.Claims) < limit {
		limit = len(tl.Claims)
	}
	if limit > 0 {
		b.WriteString("Most recent:\n")
		for _, c := range tl.Claims[:limit] {
			fmt.Fprintf(&b, "- %s (%s, %s to %s)\n", c.DisplayName, c.Type, c.StartDate, c.EndDate)
		}
	}
	b.WriteString("Write a short plain-language summary of this timeline.")
	return b.String()
}
