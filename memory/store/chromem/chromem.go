// Package chromem provides a Store backend over chromem-go, a pure Go
// embedded vector database. With a data path configured the database
// persists to disk; with an empty path it runs fully in memory.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/neurochat/neurochat/memory"
)

// collectionPrefix namespaces per-user collections inside the database.
const collectionPrefix = "user_"

// Store wraps chromem-go. Each user gets their own collection, so the
// user_id partition is enforced by the storage layout itself, not just
// by query filters.
type Store struct {
	db         *chromem.DB
	dimensions int
	log        *zap.Logger

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates a chromem-backed store. path is the on-disk location of
// the database; an empty path yields a volatile in-memory database
// (used by tests). dimensions must match the configured embedder.
func New(path string, dimensions int, opts ...Option) (*Store, error) {
	// The probe query in readAll indexes the vector, so a degenerate
	// width must be rejected up front.
	if dimensions < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	var (
		db  *chromem.DB
		err error
	)
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent db: %w", err)
		}
	}

	s := &Store{
		db:          db,
		dimensions:  dimensions,
		log:         zap.NewNop(),
		collections: make(map[string]*chromem.Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// getOrCreateCollection returns the user's collection, creating it on
// first use.
func (s *Store) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[userID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[userID]; ok {
		return col, nil
	}

	// No embedding func: embeddings are always provided by the caller.
	col, err := s.db.GetOrCreateCollection(collectionPrefix+userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// Insert saves the record as a document in the user's collection.
func (s *Store) Insert(ctx context.Context, rec memory.MemoryRecord) error {
	col, err := s.getOrCreateCollection(rec.UserID)
	if err != nil {
		return err
	}

	// Caller metadata first, then the reserved keys so they cannot be
	// shadowed.
	meta := make(map[string]string, len(rec.Metadata)+3)
	for k, v := range rec.Metadata {
		meta[k] = v
	}
	meta["user_id"] = rec.UserID
	meta["role"] = string(rec.Role)
	meta["created_at"] = rec.Timestamp.UTC().Format(time.RFC3339Nano)

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: rec.Embedding,
		Metadata:  meta,
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	s.log.Debug("chromem document stored",
		zap.String("user_id", rec.UserID),
		zap.String("id", rec.ID))
	return nil
}

// Query returns up to k similarity-scored results from the user's
// collection. chromem rejects result counts above the collection
// size, so the requested k is clamped first.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, k int) ([]memory.RetrievedMemory, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]memory.RetrievedMemory, 0, len(results))
	for _, res := range results {
		mem, err := resultToMemory(userID, res)
		if err != nil {
			s.log.Warn("skipping malformed document",
				zap.String("id", res.ID), zap.Error(err))
			continue
		}
		mem.Relevance = clamp01(float64(res.Similarity))
		out = append(out, mem)
	}
	return out, nil
}

// Recent returns the user's n most recent records newest first.
// chromem has no document listing, so the collection is read through a
// probe query sized to the full collection and sorted by timestamp.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]memory.RetrievedMemory, error) {
	all, err := s.readAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if len(all) > n {
		all = all[:n]
	}
	for i := range all {
		all[i].Relevance = 1.0
	}
	return all, nil
}

// Count returns the size of the user's collection.
func (s *Store) Count(_ context.Context, userID string) (int, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// DeleteUser drops the user's whole collection and returns how many
// documents it held. Dropping the collection makes per-user deletion
// atomic from the caller's perspective.
func (s *Store) DeleteUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.db.GetCollection(collectionPrefix+userID, nil)
	if col == nil {
		return 0, nil
	}
	n := col.Count()
	if err := s.db.DeleteCollection(collectionPrefix + userID); err != nil {
		return 0, fmt.Errorf("delete collection: %w", err)
	}
	delete(s.collections, userID)
	return n, nil
}

// Statistics walks all user collections.
func (s *Store) Statistics(_ context.Context) (memory.Statistics, error) {
	stats := memory.Statistics{PerUser: make(map[string]int)}
	for name, col := range s.db.ListCollections() {
		userID := strings.TrimPrefix(name, collectionPrefix)
		count := col.Count()
		if count == 0 {
			continue
		}
		stats.PerUser[userID] = count
		stats.Total += count
	}
	stats.UniqueUsers = len(stats.PerUser)
	return stats, nil
}

// Close is a no-op; chromem flushes persistent writes as they happen.
func (s *Store) Close() error {
	return nil
}

// readAll fetches every document in the user's collection via a probe
// embedding. The probe's similarity scores are discarded.
func (s *Store) readAll(ctx context.Context, userID string) ([]memory.RetrievedMemory, error) {
	col, err := s.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	probe := make([]float32, s.dimensions)
	probe[0] = 1

	results, err := col.QueryEmbedding(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]memory.RetrievedMemory, 0, len(results))
	for _, res := range results {
		mem, err := resultToMemory(userID, res)
		if err != nil {
			s.log.Warn("skipping malformed document",
				zap.String("id", res.ID), zap.Error(err))
			continue
		}
		out = append(out, mem)
	}
	return out, nil
}

// resultToMemory converts a chromem result back into the engine's
// read-time projection.
func resultToMemory(userID string, res chromem.Result) (memory.RetrievedMemory, error) {
	ts, err := time.Parse(time.RFC3339Nano, res.Metadata["created_at"])
	if err != nil {
		return memory.RetrievedMemory{}, fmt.Errorf("parse created_at: %w", err)
	}
	role := memory.Role(res.Metadata["role"])
	if !role.Valid() {
		return memory.RetrievedMemory{}, fmt.Errorf("unknown role %q", res.Metadata["role"])
	}

	var extra map[string]string
	for k, v := range res.Metadata {
		switch k {
		case "user_id", "role", "created_at":
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[k] = v
	}

	return memory.RetrievedMemory{
		ID:        res.ID,
		UserID:    userID,
		Role:      role,
		Content:   res.Content,
		Timestamp: ts,
		Metadata:  extra,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
