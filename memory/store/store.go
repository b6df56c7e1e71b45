// Package store selects a vector storage backend from configuration.
package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/neurochat/neurochat/memory"
	chromemstore "github.com/neurochat/neurochat/memory/store/chromem"
	"github.com/neurochat/neurochat/memory/store/pgvector"
)

// New creates a pgvector-backed store when a database URL is
// configured, otherwise an embedded chromem store at path.
func New(ctx context.Context, databaseURL, path string, dimensions int, log *zap.Logger) (memory.Store, error) {
	if strings.TrimSpace(databaseURL) != "" {
		return pgvector.New(ctx, databaseURL, dimensions, pgvector.WithLogger(log))
	}
	return chromemstore.New(path, dimensions, chromemstore.WithLogger(log))
}
