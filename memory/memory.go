package memory

import "context"

// Embedder converts text to a fixed-length vector.
// Implementations: mock (deterministic, for local use and tests),
// cached (ristretto decorator), onnx (all-MiniLM-L6-v2, behind the
// onnx build tag).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Store is the vector storage backend interface. It deals in records
// and raw similarity results; relevance thresholds, ranking policy and
// error taxonomy live in System so that brute-force and indexed
// backends stay interchangeable.
//
// Implementations: inmem (linear scan), chromem (embedded, persistent),
// pgvector (PostgreSQL).
type Store interface {
	// Insert saves a record. The record must have its embedding set;
	// optional metadata travels inside the record.
	Insert(ctx context.Context, rec MemoryRecord) error

	// Query returns up to k records for the user scored by similarity
	// to the query embedding, most similar first. Relevance is already
	// normalized to [0,1]. Results never include another user's
	// records.
	Query(ctx context.Context, userID string, embedding []float32, k int) ([]RetrievedMemory, error)

	// Recent returns the n most recent records for the user,
	// newest first.
	Recent(ctx context.Context, userID string, n int) ([]RetrievedMemory, error)

	// Count returns the number of records stored for the user.
	Count(ctx context.Context, userID string) (int, error)

	// DeleteUser removes every record for the user and returns how
	// many were removed. On partial failure the count reflects what
	// actually succeeded.
	DeleteUser(ctx context.Context, userID string) (int, error)

	// Statistics reports totals across all users.
	Statistics(ctx context.Context) (Statistics, error)

	// Close releases resources.
	Close() error
}
