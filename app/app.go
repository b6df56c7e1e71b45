// Package app wires configuration into a running chatbot instance.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neurochat/neurochat/bot"
	"github.com/neurochat/neurochat/character"
	"github.com/neurochat/neurochat/config"
	"github.com/neurochat/neurochat/llm"
	llmanthropic "github.com/neurochat/neurochat/llm/anthropic"
	llmopenai "github.com/neurochat/neurochat/llm/openai"
	"github.com/neurochat/neurochat/memory"
	"github.com/neurochat/neurochat/memory/embedder/cached"
	"github.com/neurochat/neurochat/memory/embedder/mock"
	"github.com/neurochat/neurochat/memory/store"
	"github.com/neurochat/neurochat/observability"
)

// embedding cache budget
const embedderCacheBytes = 16 << 20

// newONNXEmbedder is set by a build-tagged file when onnx support is
// compiled in.
var newONNXEmbedder func(cfg config.Config) (memory.Embedder, error)

// App holds the fully wired components of one chatbot instance.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Bot     *bot.Bot
	Memory  *memory.System
	Metrics *observability.Metrics

	closers []func()
}

// Build constructs every component from cfg: embedder, vector store,
// memory system, short-term buffer, persona, and LLM provider.
// Call Close when finished.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger, metrics *observability.Metrics) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := embedder.(*cached.Embedder); ok {
		a.closers = append(a.closers, c.Close)
	}

	st, err := store.New(ctx, cfg.DatabaseURL, cfg.MemoryDBPath, embedder.Dimensions(), log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	a.Memory = memory.NewSystem(st, embedder, memory.WithLogger(log))
	a.closers = append(a.closers, func() {
		if err := a.Memory.Close(); err != nil {
			log.Warn("closing memory system", zap.Error(err))
		}
	})

	buffer := memory.NewShortTermBuffer(cfg.ShortTermWindow)

	char, err := buildCharacter(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []bot.Option{
		bot.WithLogger(log),
		bot.WithRetrieval(cfg.MaxMemoryResults, cfg.MinRelevance),
	}
	if metrics != nil {
		opts = append(opts, bot.WithMetrics(metrics))
	}
	a.Bot = bot.New(char, a.Memory, buffer, generator, opts...)

	log.Info("chatbot ready",
		zap.String("character", char.Name()),
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", generator.Model()),
		zap.String("embedder", cfg.Embedder))
	return a, nil
}

// Close releases every component in reverse build order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildEmbedder(cfg config.Config) (memory.Embedder, error) {
	switch cfg.Embedder {
	case "mock", "":
		return mock.NewWithDimensions(cfg.EmbeddingDim), nil
	case "onnx":
		if newONNXEmbedder == nil {
			return nil, fmt.Errorf("onnx support not compiled in (build with -tags onnx)")
		}
		inner, err := newONNXEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return cached.New(inner, embedderCacheBytes)
	default:
		return nil, fmt.Errorf("unknown EMBEDDER %q (want mock or onnx)", cfg.Embedder)
	}
}

func buildCharacter(cfg config.Config) (*character.Character, error) {
	if cfg.CharacterConfig == "" {
		return character.Default(), nil
	}
	char, err := character.FromFile(cfg.CharacterConfig)
	if err != nil {
		return nil, fmt.Errorf("load character config: %w", err)
	}
	return char, nil
}

func buildGenerator(cfg config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		model := cfg.ModelName
		if model == "" {
			model = llmanthropic.DefaultModel
		}
		return llmanthropic.New(cfg.AnthropicAPIKey, model, int64(cfg.MaxTokens)), nil
	case config.ProviderOpenAI:
		model := cfg.ModelName
		if model == "" {
			model = llmopenai.DefaultModel
		}
		return llmopenai.New(cfg.OpenAIAPIKey, model, int64(cfg.MaxTokens),
			llmopenai.WithBaseURL(cfg.OpenAIBaseURL)), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}
