package cached_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/neurochat/neurochat/memory/embedder/cached"
	"github.com/neurochat/neurochat/memory/embedder/mock"
)

// countingEmbedder counts calls through to the wrapped embedder.
type countingEmbedder struct {
	inner *mock.Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

func TestEmbedDelegatesAndMatchesInner(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{inner: mock.NewWithDimensions(32)}
	e, err := cached.New(inner, 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	got, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	want, _ := inner.inner.Embed(ctx, "hello world")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cached result differs from inner at %d", i)
		}
	}
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions = %d, want 32", e.Dimensions())
	}
}

func TestEmbedResultIsStable(t *testing.T) {
	// Cache admission is asynchronous, so hit counts are not asserted.
	// Repeated calls must return identical vectors either way.
	ctx := context.Background()
	inner := &countingEmbedder{inner: mock.NewWithDimensions(32)}
	e, err := cached.New(inner, 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := e.Embed(ctx, "same text")
		if err != nil {
			t.Fatalf("Embed failed: %v", err)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("iteration %d: vector changed at %d", i, j)
			}
		}
	}
	if inner.calls.Load() < 1 {
		t.Error("inner embedder was never called")
	}
}

func TestCallerCannotMutateCache(t *testing.T) {
	ctx := context.Background()
	e, err := cached.New(mock.NewWithDimensions(8), 1<<20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	v1, _ := e.Embed(ctx, "mutate me")
	orig := v1[0]
	v1[0] = 42

	v2, _ := e.Embed(ctx, "mutate me")
	if v2[0] != orig {
		t.Errorf("mutation leaked into cache: got %v, want %v", v2[0], orig)
	}
}
