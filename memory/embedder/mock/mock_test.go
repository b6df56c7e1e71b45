package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/neurochat/neurochat/memory/embedder/mock"
)

func TestEmbedDeterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New()

	a, err := e.Embed(ctx, "I like spicy ramen")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := e.Embed(ctx, "I like spicy ramen")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedUnitLength(t *testing.T) {
	e := mock.New()
	v, err := e.Embed(context.Background(), "some arbitrary text here")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(v) != e.Dimensions() {
		t.Fatalf("got %d dims, want %d", len(v), e.Dimensions())
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Errorf("norm^2 = %v, want 1", norm)
	}
}

func TestEmbedSharedVocabularyScoresHigher(t *testing.T) {
	ctx := context.Background()
	e := mock.New()

	base, _ := e.Embed(ctx, "send money to alice")
	near, _ := e.Embed(ctx, "sending money for alice")
	far, _ := e.Embed(ctx, "what is the weather today")

	if dot(base, near) <= dot(base, far) {
		t.Errorf("shared-vocabulary similarity %v not above unrelated %v",
			dot(base, near), dot(base, far))
	}
}

func TestEmbedEmptyText(t *testing.T) {
	e := mock.NewWithDimensions(16)
	v, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(v) != 16 {
		t.Fatalf("got %d dims, want 16", len(v))
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
