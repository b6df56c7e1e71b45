// Package anthropic provides the Claude generation provider.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/neurochat/neurochat/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// Generator calls the Anthropic Messages API.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Claude-backed generator.
func New(apiKey, model string, maxTokens int64) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate sends the composed context as a single user message under
// the persona's system prompt and concatenates the text blocks of the
// reply.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userContext string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContext)),
		},
	})
	if err != nil {
		return "", &memory.GenerationError{Provider: "anthropic", Err: err}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", &memory.GenerationError{
			Provider: "anthropic",
			Err:      fmt.Errorf("response contained no text blocks"),
		}
	}
	return text, nil
}

// Model returns the configured model identifier.
func (g *Generator) Model() string {
	return g.model
}
