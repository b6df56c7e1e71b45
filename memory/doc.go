// Package memory provides the per-user memory engine for the chatbot.
//
// It is split into two tiers. Long-term memory is a durable,
// vector-indexed store of every utterance, partitioned by user and
// searchable by semantic similarity. Short-term memory is a volatile,
// bounded window of the most recent conversation turns, kept in
// process and intentionally lost on restart.
//
// Architecture:
//   - Store: pluggable vector storage backend (inmem for tests,
//     chromem for embedded persistence, pgvector for production)
//   - Embedder: text-to-vector conversion (mock for local use, ONNX
//     with all-MiniLM-L6-v2 behind the onnx build tag)
//   - System: the long-term memory component; owns embedding,
//     relevance scoring, ranking and deletion semantics
//   - ShortTermBuffer: the per-user recent-turn window
//
// All state is partitioned by user ID. A search for one user never
// returns another user's records, regardless of content similarity.
package memory
