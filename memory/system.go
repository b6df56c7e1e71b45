package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// System is the long-term memory component. It owns an Embedder and a
// Store backend, and layers the engine's semantics on top of them:
// synchronous embedding before every write, strict per-user scoping,
// relevance thresholds, ranking with newest-first tie-breaking, and
// the error taxonomy.
type System struct {
	store    Store
	embedder Embedder
	log      *zap.Logger
	now      func() time.Time
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) SystemOption {
	return func(s *System) {
		s.log = log
	}
}

// withClock overrides the clock; used by tests to control timestamps.
func withClock(now func() time.Time) SystemOption {
	return func(s *System) {
		s.now = now
	}
}

// NewSystem creates the long-term memory system over the given
// backend and embedder.
func NewSystem(store Store, embedder Embedder, opts ...SystemOption) *System {
	s := &System{
		store:    store,
		embedder: embedder,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds content and stores it as a new immutable record for the
// user. metadata is optional extra key/value context persisted with
// the record; nil is fine. The embedding is computed before the write,
// so a successful return guarantees the record is immediately
// searchable.
func (s *System) Add(ctx context.Context, userID, content string, role Role, metadata map[string]string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return "", &EmbeddingError{Op: "add", Err: err}
	}

	ts := s.now().UTC()
	rec := MemoryRecord{
		ID:        NewRecordID(userID, role, ts),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: ts,
		Embedding: embedding,
		Metadata:  cloneMetadata(metadata),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return "", &StorageError{Op: "add", Err: err}
	}

	s.log.Debug("memory stored",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("id", rec.ID))

	return rec.ID, nil
}

// Search returns up to k memories for the user ranked by descending
// relevance, dropping entries below minRelevance. Ties in relevance
// break by more-recent timestamp. An empty result is not an error.
func (s *System) Search(ctx context.Context, query, userID string, k int, minRelevance float64) ([]RetrievedMemory, error) {
	if k <= 0 {
		return nil, nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Op: "search", Err: err}
	}

	results, err := s.store.Query(ctx, userID, embedding, k)
	if err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	out := make([]RetrievedMemory, 0, len(results))
	for _, r := range results {
		if r.Relevance >= minRelevance {
			out = append(out, r)
		}
	}
	if len(out) > k {
		out = out[:k]
	}

	s.log.Debug("memory search",
		zap.String("user_id", userID),
		zap.Int("hits", len(out)))

	return out, nil
}

// Recent returns the n most recent records for the user, newest
// first, with relevance fixed at 1.0. It is independent of semantic
// similarity and exists for history inspection.
func (s *System) Recent(ctx context.Context, userID string, n int) ([]RetrievedMemory, error) {
	if n <= 0 {
		return nil, nil
	}
	results, err := s.store.Recent(ctx, userID, n)
	if err != nil {
		return nil, &StorageError{Op: "recent", Err: err}
	}
	for i := range results {
		results[i].Relevance = 1.0
	}
	return results, nil
}

// Count returns the number of records stored for the user.
func (s *System) Count(ctx context.Context, userID string) (int, error) {
	n, err := s.store.Count(ctx, userID)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// DeleteAll removes every record for the user and returns how many
// were removed. On partial failure the best-effort count is returned
// alongside the error.
func (s *System) DeleteAll(ctx context.Context, userID string) (int, error) {
	n, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return n, &StorageError{Op: "delete_all", Err: err}
	}
	s.log.Info("memories deleted",
		zap.String("user_id", userID),
		zap.Int("count", n))
	return n, nil
}

// Statistics reports store-wide totals.
func (s *System) Statistics(ctx context.Context) (Statistics, error) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return Statistics{}, &StorageError{Op: "statistics", Err: err}
	}
	return stats, nil
}

// Close releases backend resources.
func (s *System) Close() error {
	return s.store.Close()
}

// cloneMetadata copies the caller's map so later mutation cannot reach
// the stored record.
func cloneMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
