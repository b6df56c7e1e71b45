// Package bot orchestrates a chat turn: memory retrieval, prompt
// composition, response generation, and dual persistence.
package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/neurochat/neurochat/character"
	"github.com/neurochat/neurochat/llm"
	"github.com/neurochat/neurochat/memory"
	"github.com/neurochat/neurochat/observability"
	"github.com/neurochat/neurochat/prompt"
)

// Fallback reply when the LLM call fails. The turn is not persisted.
const apologyMessage = "I'm sorry, something went wrong on my end. Could you say that again?"

// Bot ties a persona, the two memory tiers, and a generator together.
type Bot struct {
	char         *character.Character
	mem          *memory.System
	buffer       *memory.ShortTermBuffer
	generator    llm.Generator
	log          *zap.Logger
	metrics      *observability.Metrics
	maxResults   int
	minRelevance float64
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Bot) {
		if log != nil {
			b.log = log
		}
	}
}

// WithMetrics enables per-turn metric recording.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithRetrieval overrides how many long-term memories are fetched per
// turn and the minimum relevance they must meet.
func WithRetrieval(maxResults int, minRelevance float64) Option {
	return func(b *Bot) {
		b.maxResults = maxResults
		b.minRelevance = minRelevance
	}
}

// New builds a Bot over the given persona, memory tiers, and generator.
func New(char *character.Character, mem *memory.System, buffer *memory.ShortTermBuffer, generator llm.Generator, opts ...Option) *Bot {
	b := &Bot{
		char:         char,
		mem:          mem,
		buffer:       buffer,
		generator:    generator,
		log:          zap.NewNop(),
		maxResults:   5,
		minRelevance: 0,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Chat runs one conversational turn for userID. Generation failures
// produce an apologetic reply with a nil error and leave both memory
// tiers untouched. Persistence failures after a successful generation
// are logged but never surfaced to the caller.
func (b *Bot) Chat(ctx context.Context, userID, message string) (string, error) {
	retrieved, err := b.mem.Search(ctx, message, userID, b.maxResults, b.minRelevance)
	if err != nil {
		// Degrade to short-term context only.
		b.log.Warn("memory search failed, continuing without long-term context",
			zap.String("user_id", userID), zap.Error(err))
		retrieved = nil
	}
	window := b.buffer.Window(userID)

	composed := prompt.Compose(retrieved, window, message)
	if b.metrics != nil {
		b.metrics.MemoriesRetrieved.Observe(float64(len(retrieved)))
		b.metrics.ContextTokens.Observe(float64(prompt.EstimateTokens(composed)))
	}

	start := time.Now()
	reply, err := b.generator.Generate(ctx, b.char.SystemPrompt(), composed)
	if b.metrics != nil {
		b.metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		var genErr *memory.GenerationError
		if errors.As(err, &genErr) {
			b.log.Error("generation failed",
				zap.String("user_id", userID),
				zap.String("provider", genErr.Provider),
				zap.Error(err))
			if b.metrics != nil {
				b.metrics.ChatRequests.WithLabelValues(observability.OutcomeGeneration).Inc()
			}
			return apologyMessage, nil
		}
		if b.metrics != nil {
			b.metrics.ChatRequests.WithLabelValues(observability.OutcomeError).Inc()
		}
		return "", err
	}

	b.persist(ctx, userID, message, reply)
	if b.metrics != nil {
		b.metrics.ChatRequests.WithLabelValues(observability.OutcomeOK).Inc()
	}
	return reply, nil
}

// persist records both sides of a completed turn in the short-term
// buffer and, best effort, in long-term memory. The user turn always
// precedes the assistant turn.
func (b *Bot) persist(ctx context.Context, userID, message, reply string) {
	now := time.Now().UTC()
	b.buffer.Append(userID, memory.ConversationTurn{
		Role:      memory.RoleUser,
		Content:   message,
		Timestamp: now,
	})
	b.buffer.Append(userID, memory.ConversationTurn{
		Role:      memory.RoleAssistant,
		Content:   reply,
		Timestamp: now,
	})

	if _, err := b.mem.Add(ctx, userID, message, memory.RoleUser, nil); err != nil {
		b.noteWriteFailure(userID, memory.RoleUser, err)
	}
	if _, err := b.mem.Add(ctx, userID, reply, memory.RoleAssistant, nil); err != nil {
		b.noteWriteFailure(userID, memory.RoleAssistant, err)
	}
}

func (b *Bot) noteWriteFailure(userID string, role memory.Role, err error) {
	b.log.Warn("long-term persistence failed",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.Error(err))
	if b.metrics != nil {
		b.metrics.LongTermWriteFailures.Inc()
	}
}

// Stats summarizes both memory tiers for one user.
type Stats struct {
	UserID         string `json:"user_id"`
	LongTermCount  int    `json:"long_term_count"`
	ShortTermCount int    `json:"short_term_count"`
}

// Stats reports per-user memory counts.
func (b *Bot) Stats(ctx context.Context, userID string) (Stats, error) {
	count, err := b.mem.Count(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		UserID:         userID,
		LongTermCount:  count,
		ShortTermCount: b.buffer.Len(userID),
	}, nil
}

// Recent returns the user's n most recent long-term memories,
// newest first.
func (b *Bot) Recent(ctx context.Context, userID string, n int) ([]memory.RetrievedMemory, error) {
	return b.mem.Recent(ctx, userID, n)
}

// ClearShortTerm drops the user's conversation window. Long-term
// memories are unaffected.
func (b *Bot) ClearShortTerm(userID string) {
	b.buffer.Clear(userID)
}

// DeleteResult reports what DeleteAll removed from each tier.
type DeleteResult struct {
	LongTermDeleted  int `json:"long_term_deleted"`
	ShortTermDeleted int `json:"short_term_deleted"`
}

// DeleteAll erases everything stored for userID in both tiers. The
// returned counts are valid even when the long-term delete errors.
func (b *Bot) DeleteAll(ctx context.Context, userID string) (DeleteResult, error) {
	shortDeleted := b.buffer.Len(userID)
	b.buffer.Clear(userID)
	longDeleted, err := b.mem.DeleteAll(ctx, userID)
	return DeleteResult{
		LongTermDeleted:  longDeleted,
		ShortTermDeleted: shortDeleted,
	}, err
}

// Statistics reports store-wide memory counts across all users.
func (b *Bot) Statistics(ctx context.Context) (memory.Statistics, error) {
	return b.mem.Statistics(ctx)
}

// Character exposes the persona the bot speaks as.
func (b *Bot) Character() *character.Character {
	return b.char
}
