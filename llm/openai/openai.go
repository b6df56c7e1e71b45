// Package openai provides a generation provider for OpenAI-compatible
// APIs, including local servers such as LM Studio via a custom base
// URL.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/neurochat/neurochat/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Generator calls the chat completions API.
type Generator struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// Option configures the generator.
type Option func(*config)

type config struct {
	baseURL string
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// New creates an OpenAI-compatible generator. Local servers commonly
// accept any non-empty API key.
func New(apiKey, model string, maxTokens int64, opts ...Option) *Generator {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Generator{
		client:    openai.NewClient(clientOpts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate sends the system prompt and composed context as a
// two-message chat completion.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userContext string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(g.model),
		MaxTokens: openai.Int(g.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userContext),
		},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", &memory.GenerationError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &memory.GenerationError{
			Provider: "openai",
			Err:      fmt.Errorf("response contained no choices"),
		}
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model identifier.
func (g *Generator) Model() string {
	return g.model
}
