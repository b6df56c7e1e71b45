// Package pgvector provides a Store backend on PostgreSQL with the
// pgvector extension. It is the production counterpart to the
// embedded chromem backend: same contract, shared database.
package pgvector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/neurochat/neurochat/memory"
)

// Store persists memory records in a single memories table, scoped by
// user_id on every query.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New connects to PostgreSQL and ensures the schema exists.
// dimensions fixes the vector column width and must match the
// configured embedder.
func New(ctx context.Context, databaseURL string, dimensions int, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool, dimensions); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Store{pool: pool, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			metadata JSONB
		);`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories (user_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Insert saves the record.
func (s *Store) Insert(ctx context.Context, rec memory.MemoryRecord) error {
	var meta any
	if len(rec.Metadata) > 0 {
		meta = rec.Metadata
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memories (id, user_id, role, content, embedding, created_at, metadata)
		 VALUES ($1, $2, $3, $4, $5::vector, $6, $7)`,
		rec.ID,
		rec.UserID,
		string(rec.Role),
		rec.Content,
		vectorLiteral(rec.Embedding),
		rec.Timestamp,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// Query ranks the user's records by cosine distance in the database
// and maps distance to relevance. Ties in distance break newest
// first, matching the engine's ordering contract.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, k int) ([]memory.RetrievedMemory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role, content, created_at, metadata, 1 - (embedding <=> $2::vector) AS similarity
		 FROM memories
		 WHERE user_id = $1
		 ORDER BY embedding <=> $2::vector ASC, created_at DESC
		 LIMIT $3`,
		userID,
		vectorLiteral(embedding),
		k,
	)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	out := make([]memory.RetrievedMemory, 0, k)
	for rows.Next() {
		var (
			m          memory.RetrievedMemory
			role       string
			similarity float64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &m.Timestamp, &m.Metadata, &similarity); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		m.Role = memory.Role(role)
		m.Relevance = clamp01(similarity)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return out, nil
}

// Recent returns the user's n most recent records newest first.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]memory.RetrievedMemory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role, content, created_at, metadata
		 FROM memories
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent memories: %w", err)
	}
	defer rows.Close()

	out := make([]memory.RetrievedMemory, 0, n)
	for rows.Next() {
		var (
			m    memory.RetrievedMemory
			role string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &m.Timestamp, &m.Metadata); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		m.Role = memory.Role(role)
		m.Relevance = 1.0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return out, nil
}

// Count returns the record count for the user.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// DeleteUser removes every record for the user in one statement, so
// the deletion is atomic per user.
func (s *Store) DeleteUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM memories WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete memories: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Statistics aggregates per-user counts in the database.
func (s *Store) Statistics(ctx context.Context) (memory.Statistics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, COUNT(*) FROM memories GROUP BY user_id`)
	if err != nil {
		return memory.Statistics{}, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	stats := memory.Statistics{PerUser: make(map[string]int)}
	for rows.Next() {
		var (
			userID string
			count  int
		)
		if err := rows.Scan(&userID, &count); err != nil {
			return memory.Statistics{}, fmt.Errorf("scan statistics row: %w", err)
		}
		stats.PerUser[userID] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return memory.Statistics{}, fmt.Errorf("iterate statistics rows: %w", err)
	}
	stats.UniqueUsers = len(stats.PerUser)
	return stats, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// vectorLiteral renders the embedding in pgvector's text format.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
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
