package memory

import (
	"fmt"
	"time"
)

// Role identifies who produced an utterance.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// MemoryRecord is a single stored utterance in long-term memory.
// Records are immutable once stored: they are only ever inserted, or
// bulk-deleted per user.
type MemoryRecord struct {
	// ID is derived from (UserID, Role, Timestamp) so uniqueness holds
	// without a central counter.
	ID string

	// UserID is the sole partition key. Every query and deletion is
	// scoped by it.
	UserID string

	Role    Role
	Content string

	// Timestamp is the creation instant in UTC. Under the
	// single-writer-per-user assumption it is monotonically
	// non-decreasing per user.
	Timestamp time.Time

	// Embedding is computed once at write time and never recomputed.
	Embedding []float32

	// Metadata holds optional caller-supplied key/value pairs stored
	// alongside the record. May be nil.
	Metadata map[string]string
}

// NewRecordID derives the stable record identifier from the record's
// owning user, role and creation instant.
func NewRecordID(userID string, role Role, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s", userID, role, ts.UTC().Format(time.RFC3339Nano))
}

// RetrievedMemory is a read-time projection of a MemoryRecord plus a
// relevance score in [0,1] (1 = identical, 0 = unrelated). It is never
// persisted.
type RetrievedMemory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Relevance float64           `json:"relevance"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ConversationTurn is a single element of the short-term buffer.
type ConversationTurn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// Statistics summarizes the long-term store across all users.
type Statistics struct {
	Total       int            `json:"total_memories"`
	UniqueUsers int            `json:"unique_users"`
	PerUser     map[string]int `json:"per_user,omitempty"`
}
