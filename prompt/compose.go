// Package prompt builds the single textual context handed to the
// generation provider: retrieved long-term memories, the short-term
// window and the new message, merged into one deterministic block.
//
// Everything here is a pure function of its inputs. There is no
// clock, no randomness and no truncation of message contents; output
// size is bounded by the caller's choice of k and the window size W.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/neurochat/neurochat/memory"
)

const (
	longTermHeader    = "## Relevant past memories:"
	shortTermHeader   = "## Current conversation:"
	noContextSentinel = "(This is your first conversation.)"
	separator         = "---"

	// timestampLayout is the human-readable form shown next to
	// retrieved memories.
	timestampLayout = "2006/01/02 15:04"

	// indicatorLevels is the number of discrete relevance levels.
	indicatorLevels = 3
)

// Compose merges retrieved memories, the short-term window and the
// new message into one prompt fragment. Retrieved items are emitted
// in the order received; the store has already ranked them. When both
// memory sections are empty a sentinel line stands in, so the
// generation step always receives a well-formed prompt shape.
func Compose(retrieved []memory.RetrievedMemory, shortTerm []memory.ConversationTurn, newMessage string) string {
	var parts []string

	if len(retrieved) > 0 {
		parts = append(parts, longTermHeader)
		for i, mem := range retrieved {
			line := fmt.Sprintf("%d. [%s]", i+1, FormatTimestamp(mem.Timestamp))
			if stars := RelevanceIndicator(mem.Relevance); stars != "" {
				line += " " + stars
			}
			line += fmt.Sprintf(" %s: %s", roleLabel(mem.Role), mem.Content)
			parts = append(parts, line)
		}
		parts = append(parts, "")
	}

	if len(shortTerm) > 0 {
		parts = append(parts, shortTermHeader)
		for _, turn := range shortTerm {
			parts = append(parts, fmt.Sprintf("%s: %s", roleLabel(turn.Role), turn.Content))
		}
		parts = append(parts, "")
	}

	if len(retrieved) == 0 && len(shortTerm) == 0 {
		parts = append(parts, noContextSentinel, "")
	}

	parts = append(parts, separator)
	parts = append(parts, fmt.Sprintf("Current user message: %s", newMessage))

	return strings.Join(parts, "\n")
}

// RelevanceIndicator quantizes a relevance score in [0,1] into a
// coarse star rating. The mapping is monotonic: strictly higher
// relevance never yields fewer stars.
func RelevanceIndicator(relevance float64) string {
	level := int(relevance * indicatorLevels)
	if level < 0 {
		level = 0
	}
	if level > indicatorLevels {
		level = indicatorLevels
	}
	return strings.Repeat("★", level)
}

// FormatTimestamp renders a stored timestamp for display inside the
// prompt. Always UTC so composition never depends on the host zone.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// roleLabel maps a role to the label the persona prompt uses. The
// assistant's own past utterances read as "You" so the model
// recognizes them as its own.
func roleLabel(r memory.Role) string {
	if r == memory.RoleAssistant {
		return "You"
	}
	return "User"
}
