// Package token estimates language-model token counts for budget management.
//
// The estimate is deliberately a heuristic: it is deterministic and
// monotonic (appending text never lowers the count), which is all the
// injection cap and session budget need. Exact tokenizer parity with any
// particular model is a non-goal.
package token

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Limits enforced with Count.
const (
	// MaxInjectionTokens caps a single card's injection text.
	MaxInjectionTokens = 250

	// DefaultSessionBudget is the total injection budget per session.
	DefaultSessionBudget = 400
)

// wordMultiplier converts a word count to an approximate token count.
// English prose averages slightly more than one token per word.
const wordMultiplier = 1.3

// runesPerToken is the floor heuristic for text with few space-separated
// words (long identifiers, URLs, code). Roughly four characters per token.
const runesPerToken = 4

// Count returns a deterministic token estimate for text. Empty or
// whitespace-only text counts as zero.
//
// The estimate is the larger of a word-based and a rune-based heuristic.
// Both grow monotonically as text is appended, so the max does too.
func Count(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}

	words := len(strings.Fields(trimmed))
	byWords := int(math.Ceil(float64(words) * wordMultiplier))

	runes := utf8.RuneCountInString(trimmed)
	byRunes := (runes + runesPerToken - 1) / runesPerToken

	return max(byWords, byRunes)
}
