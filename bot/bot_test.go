package bot_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurochat/neurochat/bot"
	"github.com/neurochat/neurochat/character"
	"github.com/neurochat/neurochat/memory"
	"github.com/neurochat/neurochat/memory/embedder/mock"
	"github.com/neurochat/neurochat/memory/store/inmem"
)

// stubGenerator replays canned replies and records the prompts it saw.
type stubGenerator struct {
	reply    string
	err      error
	contexts []string
}

func (g *stubGenerator) Generate(_ context.Context, _ string, userContext string) (string, error) {
	g.contexts = append(g.contexts, userContext)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *stubGenerator) Model() string { return "stub" }

func newBot(t *testing.T, gen *stubGenerator) *bot.Bot {
	t.Helper()
	sys := memory.NewSystem(inmem.New(), mock.New())
	buf := memory.NewShortTermBuffer(3)
	char, err := character.New(character.Config{Name: "Mio", Personality: "warm"})
	require.NoError(t, err)
	return bot.New(char, sys, buf, gen)
}

func TestChatPersistsBothTurns(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{reply: "Nice to meet you!"}
	b := newBot(t, gen)

	reply, err := b.Chat(ctx, "u1", "Hi, I'm Sam")
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you!", reply)

	stats, err := b.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.LongTermCount, "user and assistant turns should both persist")
	assert.Equal(t, 2, stats.ShortTermCount)
}

func TestChatGenerationFailureApologizesAndPersistsNothing(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{err: &memory.GenerationError{Provider: "stub", Err: errors.New("rate limited")}}
	b := newBot(t, gen)

	reply, err := b.Chat(ctx, "u1", "Hi there")
	require.NoError(t, err, "generation failure must not surface as an error")
	assert.Contains(t, reply, "sorry")

	stats, err := b.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.LongTermCount)
	assert.Zero(t, stats.ShortTermCount)
}

func TestChatUnexpectedErrorSurfaces(t *testing.T) {
	gen := &stubGenerator{err: errors.New("wire torn")}
	b := newBot(t, gen)

	_, err := b.Chat(context.Background(), "u1", "Hi")
	assert.Error(t, err)
}

func TestChatPromptContainsHistory(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{reply: "ok"}
	b := newBot(t, gen)

	_, err := b.Chat(ctx, "u1", "I love spicy ramen")
	require.NoError(t, err)
	_, err = b.Chat(ctx, "u1", "what do I love eating")
	require.NoError(t, err)

	require.Len(t, gen.contexts, 2)
	first := gen.contexts[0]
	assert.Contains(t, first, "(This is your first conversation.)")
	assert.True(t, strings.HasSuffix(first, "Current user message: I love spicy ramen"))

	second := gen.contexts[1]
	assert.NotContains(t, second, "(This is your first conversation.)")
	assert.Contains(t, second, "## Current conversation:")
	assert.Contains(t, second, "I love spicy ramen")
}

func TestChatUserIsolation(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{reply: "ok"}
	b := newBot(t, gen)

	_, err := b.Chat(ctx, "alice", "my cat is named Miso")
	require.NoError(t, err)

	_, err = b.Chat(ctx, "bob", "tell me about cats")
	require.NoError(t, err)

	bobPrompt := gen.contexts[len(gen.contexts)-1]
	assert.NotContains(t, bobPrompt, "Miso", "one user's memories must not leak into another's prompt")
}

func TestClearShortTermKeepsLongTerm(t *testing.T) {
	ctx := context.Background()
	b := newBot(t, &stubGenerator{reply: "ok"})

	_, err := b.Chat(ctx, "u1", "remember this")
	require.NoError(t, err)

	b.ClearShortTerm("u1")

	stats, err := b.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.ShortTermCount)
	assert.Equal(t, 2, stats.LongTermCount)
}

func TestDeleteAllReportsBothTiers(t *testing.T) {
	ctx := context.Background()
	b := newBot(t, &stubGenerator{reply: "ok"})

	_, err := b.Chat(ctx, "u1", "first message")
	require.NoError(t, err)

	result, err := b.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.LongTermDeleted)
	assert.Equal(t, 2, result.ShortTermDeleted)

	stats, err := b.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.LongTermCount)
	assert.Zero(t, stats.ShortTermCount)
}

func TestRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	b := newBot(t, &stubGenerator{reply: "ok"})

	_, err := b.Chat(ctx, "u1", "older message")
	require.NoError(t, err)
	_, err = b.Chat(ctx, "u1", "newer message")
	require.NoError(t, err)

	memories, err := b.Recent(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, memories, 4)
	for _, m := range memories {
		assert.Equal(t, 1.0, m.Relevance)
	}
}
