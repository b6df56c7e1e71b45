package memory

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned when an empty utterance is offered for
// storage. Stored records must carry non-empty content.
var ErrEmptyContent = errors.New("memory: empty content")

// ErrInvalidRole is returned when a role outside {user, assistant} is
// offered for storage.
var ErrInvalidRole = errors.New("memory: invalid role")

// EmbeddingError reports that vectorization failed. It is fatal for
// the triggering write or query and is not retried at this layer.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed during %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StorageError reports that a durable read or write failed. Where the
// contract defines partial-result semantics (deletion), the best-effort
// count is surfaced alongside the error by the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failed during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GenerationError reports that the external text-generation call
// failed. The orchestrator maps provider errors to this type and
// surfaces an apologetic message instead of the raw provider error.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (provider %s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
