package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeEmbedder returns a fixed vector per known text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

// fakeStore records inserts and serves canned query results.
type fakeStore struct {
	inserted []MemoryRecord
	results  []RetrievedMemory
	err      error
}

func (f *fakeStore) Insert(_ context.Context, rec MemoryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) Query(_ context.Context, userID string, _ []float32, k int) ([]RetrievedMemory, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []RetrievedMemory
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) Recent(_ context.Context, userID string, n int) ([]RetrievedMemory, error) {
	return f.Query(context.Background(), userID, nil, n)
}

func (f *fakeStore) Count(_ context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, r := range f.inserted {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	kept := f.inserted[:0]
	deleted := 0
	for _, r := range f.inserted {
		if r.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.inserted = kept
	return deleted, nil
}

func (f *fakeStore) Statistics(_ context.Context) (Statistics, error) {
	if f.err != nil {
		return Statistics{}, f.err
	}
	per := map[string]int{}
	for _, r := range f.inserted {
		per[r.UserID]++
	}
	total := 0
	for _, n := range per {
		total += n
	}
	return Statistics{Total: total, UniqueUsers: len(per), PerUser: per}, nil
}

func (f *fakeStore) Close() error { return nil }

func TestSystemAddValidation(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem(&fakeStore{}, &fakeEmbedder{})

	if _, err := sys.Add(ctx, "u1", "", RoleUser, nil); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty content: got %v, want ErrEmptyContent", err)
	}
	if _, err := sys.Add(ctx, "u1", "hi", Role("narrator"), nil); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role: got %v, want ErrInvalidRole", err)
	}
}

func TestSystemAddStoresRecord(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	sys := NewSystem(store, &fakeEmbedder{}, withClock(func() time.Time { return fixed }))

	id, err := sys.Add(ctx, "u1", "I like ramen", RoleUser, nil)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("got %d inserts, want 1", len(store.inserted))
	}
	rec := store.inserted[0]
	if rec.ID != id {
		t.Errorf("returned id %q does not match stored id %q", id, rec.ID)
	}
	if want := NewRecordID("u1", RoleUser, fixed); rec.ID != want {
		t.Errorf("record id = %q, want %q", rec.ID, want)
	}
	if !rec.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, fixed)
	}
	if len(rec.Embedding) == 0 {
		t.Error("embedding was not stored")
	}
}

func TestSystemAddCopiesMetadata(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	sys := NewSystem(store, &fakeEmbedder{})

	meta := map[string]string{"source": "import", "topic": "food"}
	if _, err := sys.Add(ctx, "u1", "I like ramen", RoleUser, meta); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	meta["source"] = "clobbered"

	rec := store.inserted[0]
	if got := rec.Metadata["source"]; got != "import" {
		t.Errorf("metadata source = %q, want %q", got, "import")
	}
	if got := rec.Metadata["topic"]; got != "food" {
		t.Errorf("metadata topic = %q, want %q", got, "food")
	}
}

func TestSystemAddEmptyMetadataStoresNil(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	sys := NewSystem(store, &fakeEmbedder{})

	if _, err := sys.Add(ctx, "u1", "hello", RoleUser, map[string]string{}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if store.inserted[0].Metadata != nil {
		t.Errorf("metadata = %v, want nil", store.inserted[0].Metadata)
	}
}

func TestSystemAddEmbeddingError(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	sys := NewSystem(store, &fakeEmbedder{err: errors.New("model offline")})

	_, err := sys.Add(ctx, "u1", "hello", RoleUser, nil)
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("got %T, want *EmbeddingError", err)
	}
	if len(store.inserted) != 0 {
		t.Error("record was stored despite embedding failure")
	}
}

func TestSystemAddStorageError(t *testing.T) {
	sys := NewSystem(&fakeStore{err: errors.New("disk full")}, &fakeEmbedder{})

	_, err := sys.Add(context.Background(), "u1", "hello", RoleUser, nil)
	var stErr *StorageError
	if !errors.As(err, &stErr) {
		t.Fatalf("got %T, want *StorageError", err)
	}
}

func TestSystemSearchOrderingAndThreshold(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{results: []RetrievedMemory{
		{ID: "a", UserID: "u1", Content: "low", Relevance: 0.2, Timestamp: base},
		{ID: "b", UserID: "u1", Content: "high", Relevance: 0.9, Timestamp: base},
		{ID: "c", UserID: "u1", Content: "tie old", Relevance: 0.5, Timestamp: base.Add(1 * time.Minute)},
		{ID: "d", UserID: "u1", Content: "tie new", Relevance: 0.5, Timestamp: base.Add(2 * time.Minute)},
	}}
	sys := NewSystem(store, &fakeEmbedder{})

	got, err := sys.Search(ctx, "anything", "u1", 10, 0.3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	wantOrder := []string{"b", "d", "c"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d results, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("result[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestSystemSearchZeroK(t *testing.T) {
	sys := NewSystem(&fakeStore{}, &fakeEmbedder{})
	got, err := sys.Search(context.Background(), "q", "u1", 0, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("k=0 returned %d results", len(got))
	}
}

func TestSystemSearchEmbeddingError(t *testing.T) {
	sys := NewSystem(&fakeStore{}, &fakeEmbedder{err: errors.New("down")})
	_, err := sys.Search(context.Background(), "q", "u1", 5, 0)
	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("got %T, want *EmbeddingError", err)
	}
}

func TestSystemRecentForcesFullRelevance(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{results: []RetrievedMemory{
		{ID: "a", UserID: "u1", Relevance: 0.1, Timestamp: base},
		{ID: "b", UserID: "u1", Relevance: 0.4, Timestamp: base.Add(time.Minute)},
	}}
	sys := NewSystem(store, &fakeEmbedder{})

	got, err := sys.Recent(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	for _, m := range got {
		if m.Relevance != 1.0 {
			t.Errorf("memory %s relevance = %v, want 1.0", m.ID, m.Relevance)
		}
	}
}

func TestSystemCountAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	sys := NewSystem(store, &fakeEmbedder{})

	for i := 0; i < 3; i++ {
		if _, err := sys.Add(ctx, "u1", fmt.Sprintf("msg %d", i), RoleUser, nil); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if _, err := sys.Add(ctx, "u2", "other user", RoleUser, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	n, err := sys.Count(ctx, "u1")
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3, nil", n, err)
	}

	deleted, err := sys.DeleteAll(ctx, "u1")
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	n, _ = sys.Count(ctx, "u1")
	if n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
	n, _ = sys.Count(ctx, "u2")
	if n != 1 {
		t.Errorf("other user count = %d, want 1", n)
	}
}

func TestSystemStatistics(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	sys := NewSystem(store, &fakeEmbedder{})

	_, _ = sys.Add(ctx, "u1", "one", RoleUser, nil)
	_, _ = sys.Add(ctx, "u1", "two", RoleAssistant, nil)
	_, _ = sys.Add(ctx, "u2", "three", RoleUser, nil)

	stats, err := sys.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.Total != 3 || stats.UniqueUsers != 2 {
		t.Errorf("stats = %+v, want total 3 users 2", stats)
	}
	if stats.PerUser["u1"] != 2 {
		t.Errorf("u1 count = %d, want 2", stats.PerUser["u1"])
	}
}
