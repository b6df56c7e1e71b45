// Package inmem provides a brute-force, in-process Store backend.
//
// Records live in a map sharded by user ID and similarity search is a
// linear scan over the user's records. For the per-user record counts
// this engine expects, the scan is more than sufficient; indexed
// backends (chromem, pgvector) implement the same contract.
package inmem

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/neurochat/neurochat/memory"
)

// Store is the linear-scan backend.
type Store struct {
	mu      sync.RWMutex
	records map[string][]memory.MemoryRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string][]memory.MemoryRecord)}
}

// Insert appends the record to the owning user's shard.
func (s *Store) Insert(_ context.Context, rec memory.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = append(s.records[rec.UserID], rec)
	return nil
}

// Query scans the user's records and returns up to k results scored
// by cosine similarity, most similar first.
func (s *Store) Query(_ context.Context, userID string, embedding []float32, k int) ([]memory.RetrievedMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shard := s.records[userID]
	if len(shard) == 0 {
		return nil, nil
	}

	results := make([]memory.RetrievedMemory, 0, len(shard))
	for _, rec := range shard {
		results = append(results, memory.RetrievedMemory{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Role:      rec.Role,
			Content:   rec.Content,
			Timestamp: rec.Timestamp,
			Relevance: clamp01(cosineSimilarity(embedding, rec.Embedding)),
			Metadata:  rec.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Recent returns the user's n most recent records, newest first.
func (s *Store) Recent(_ context.Context, userID string, n int) ([]memory.RetrievedMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shard := s.records[userID]
	if len(shard) == 0 {
		return nil, nil
	}

	results := make([]memory.RetrievedMemory, 0, len(shard))
	for _, rec := range shard {
		results = append(results, memory.RetrievedMemory{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Role:      rec.Role,
			Content:   rec.Content,
			Timestamp: rec.Timestamp,
			Relevance: 1.0,
			Metadata:  rec.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Count returns the record count for the user.
func (s *Store) Count(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userID]), nil
}

// DeleteUser drops the user's shard and returns how many records it
// held.
func (s *Store) DeleteUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records[userID])
	delete(s.records, userID)
	return n, nil
}

// Statistics totals the shards.
func (s *Store) Statistics(_ context.Context) (memory.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := memory.Statistics{PerUser: make(map[string]int, len(s.records))}
	for userID, shard := range s.records {
		if len(shard) == 0 {
			continue
		}
		stats.PerUser[userID] = len(shard)
		stats.Total += len(shard)
	}
	stats.UniqueUsers = len(stats.PerUser)
	return stats, nil
}

// Close is a no-op; everything lives in process memory.
func (s *Store) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
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
