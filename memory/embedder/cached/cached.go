// Package cached provides a memoizing decorator around any Embedder.
//
// The orchestrator embeds the same short texts repeatedly (queries
// that echo recent messages, re-stored assistant phrasings), and
// embedding is the most expensive pure computation in the engine.
// Results are cached in ristretto keyed by the exact input text.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/neurochat/neurochat/memory"
)

// Embedder wraps an inner embedder with a ristretto cache.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New creates the caching decorator. maxBytes bounds the cache cost,
// counted as four bytes per vector element.
func New(inner memory.Embedder, maxBytes int64) (*Embedder, error) {
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector when available, otherwise delegates
// to the inner embedder and stores the result. Cached values are
// copied out so callers can't mutate shared state.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		cached := v.([]float32)
		out := make([]float32, len(cached))
		copy(out, cached)
		return out, nil
	}

	embedding, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	stored := make([]float32, len(embedding))
	copy(stored, embedding)
	e.cache.Set(text, stored, int64(len(stored)*4))

	return embedding, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}
