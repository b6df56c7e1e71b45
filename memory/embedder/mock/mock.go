// Package mock provides a deterministic embedder for local use and
// tests. No model files, no network.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Embedder hashes words into buckets of a fixed-size vector, so texts
// sharing vocabulary land near each other. The output is deterministic
// for identical input, which the engine's relevance contract relies
// on, and crudely semantic: "send money to alice" scores closer to
// "sending alice money" than to "what is the weather".
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with 384 dimensions, matching
// all-MiniLM-L6-v2 so mock and ONNX builds are interchangeable.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// NewWithDimensions creates a mock embedder with a custom vector size.
func NewWithDimensions(dimensions int) *Embedder {
	return &Embedder{dimensions: dimensions}
}

// Embed produces a unit vector from the text's word histogram.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	embedding := make([]float32, e.dimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}

		h := fnv.New64a()
		h.Write([]byte(word))
		seed := h.Sum64()

		// Spread each word over a handful of buckets with signed
		// weights derived from an LCG over the word hash.
		for i := 0; i < 4; i++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			bucket := int(seed>>33) % e.dimensions
			if bucket < 0 {
				bucket += e.dimensions
			}
			if seed&1 == 0 {
				embedding[bucket] += 1
			} else {
				embedding[bucket] -= 1
			}
		}
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// normalize converts the vector to unit length.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
