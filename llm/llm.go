// Package llm defines the generation provider contract. The engine
// treats generation as an opaque text-in, text-out call; providers
// wrap their failures in memory.GenerationError.
package llm

import "context"

// Generator produces the assistant's reply from a system prompt and a
// composed context. The call blocks until the provider responds;
// cancellation and deadlines come from ctx.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userContext string) (string, error)

	// Model returns the model identifier in use, for logging.
	Model() string
}
