// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Providers accepted in LLM_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config contains all runtime settings for the chatbot.
type Config struct {
	LLMProvider     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	ModelName       string
	MaxTokens       int

	MemoryDBPath string
	DatabaseURL  string
	Embedder     string
	EmbeddingDim int

	ONNXModelPath     string
	ONNXTokenizerPath string

	MaxMemoryResults int
	MinRelevance     float64
	ShortTermWindow  int

	CharacterConfig string

	BindAddr         string
	MetricsNamespace string
}

// Load reads environment variables and applies defaults. Only the
// selected provider's credentials are required.
func Load() (Config, error) {
	cfg := Config{
		LLMProvider:       strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey:   strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:     envOrDefault("OPENAI_BASE_URL", "http://localhost:1234/v1"),
		ModelName:         os.Getenv("MODEL_NAME"),
		MemoryDBPath:      envOrDefault("MEMORY_DB_PATH", "./data/memory"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Embedder:          strings.ToLower(envOrDefault("EMBEDDER", "mock")),
		ONNXModelPath:     os.Getenv("ONNX_MODEL_PATH"),
		ONNXTokenizerPath: os.Getenv("ONNX_TOKENIZER_PATH"),
		CharacterConfig:   os.Getenv("CHARACTER_CONFIG"),
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "neurochat"),
	}

	var err error
	if cfg.MaxTokens, err = intFromEnv("MAX_TOKENS", 1000); err != nil {
		return Config{}, err
	}
	if cfg.EmbeddingDim, err = intFromEnv("EMBEDDING_DIM", 384); err != nil {
		return Config{}, err
	}
	if cfg.MaxMemoryResults, err = intFromEnv("MAX_MEMORY_RESULTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.MinRelevance, err = floatFromEnv("MIN_RELEVANCE", 0); err != nil {
		return Config{}, err
	}
	if cfg.ShortTermWindow, err = intFromEnv("SHORT_TERM_MEMORY_SIZE", 5); err != nil {
		return Config{}, err
	}

	switch cfg.LLMProvider {
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return Config{}, fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	case ProviderOpenAI:
		// Local OpenAI-compatible servers accept any key.
		if cfg.OpenAIAPIKey == "" {
			cfg.OpenAIAPIKey = "not-needed"
		}
	default:
		return Config{}, fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)",
			cfg.LLMProvider, ProviderAnthropic, ProviderOpenAI)
	}

	if cfg.MinRelevance < 0 || cfg.MinRelevance > 1 {
		return Config{}, fmt.Errorf("MIN_RELEVANCE must be in [0,1], got %v", cfg.MinRelevance)
	}
	if cfg.EmbeddingDim < 1 {
		return Config{}, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func floatFromEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
