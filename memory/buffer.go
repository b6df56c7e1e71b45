package memory

import "sync"

// DefaultWindow is the short-term window size used when none is
// configured.
const DefaultWindow = 5

// ShortTermBuffer holds the recent conversation turns per user,
// capped at a fixed window size. It has no persistence: a process
// restart yields an empty buffer for every user.
//
// The outer map is guarded so that unrelated users can be served
// concurrently. Sequencing of appends for a single user is the
// caller's responsibility (at most one in-flight conversation per
// user is assumed).
type ShortTermBuffer struct {
	mu     sync.RWMutex
	window int
	turns  map[string][]ConversationTurn
}

// NewShortTermBuffer creates a buffer with the given window size W.
// Non-positive values fall back to DefaultWindow.
func NewShortTermBuffer(window int) *ShortTermBuffer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &ShortTermBuffer{
		window: window,
		turns:  make(map[string][]ConversationTurn),
	}
}

// Append adds a turn for the user, evicting the oldest turn once the
// window is exceeded.
func (b *ShortTermBuffer) Append(userID string, turn ConversationTurn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seq := append(b.turns[userID], turn)
	if len(seq) > b.window {
		seq = seq[len(seq)-b.window:]
	}
	b.turns[userID] = seq
}

// Window returns the user's last W turns in chronological order.
// The returned slice is a copy.
func (b *ShortTermBuffer) Window(userID string) []ConversationTurn {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seq := b.turns[userID]
	if len(seq) == 0 {
		return nil
	}
	out := make([]ConversationTurn, len(seq))
	copy(out, seq)
	return out
}

// Len returns the number of turns currently held for the user.
func (b *ShortTermBuffer) Len(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.turns[userID])
}

// Clear drops the user's turns. Clearing an empty or unknown user is
// a no-op.
func (b *ShortTermBuffer) Clear(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.turns, userID)
}

// WindowSize returns the configured window W.
func (b *ShortTermBuffer) WindowSize() int {
	return b.window
}
