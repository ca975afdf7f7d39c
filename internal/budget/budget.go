// Package budget estimates prompt sizes so oversized recommendation prompts
// can be reported before they hit a model's context limit. Backends use
// different tokenizers, so the estimate is a heuristic: ASCII text at about
// four characters per token, and one token per non-ASCII rune, which covers
// Hangul syllables that most BPE vocabularies split into one or more tokens.
package budget

import (
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"
)

const (
	// asciiPerToken is the character-to-token ratio used for ASCII text.
	asciiPerToken = 4

	// perMessageOverhead approximates the role and framing tokens each chat
	// message adds.
	perMessageOverhead = 4

	// DefaultMaxContextTokens is the default prompt budget in tokens, sized for
	// 8k-context models with room left for the answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s.
func Estimate(s string) int {
	ascii, other := 0, 0
	for _, r := range s {
		if r < utf8.RuneSelf {
			ascii++
		} else {
			other++
		}
	}
	n := ascii/asciiPerToken + other
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for msgs.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += perMessageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Report is the outcome of checking a prompt against a budget.
type Report struct {
	// Tokens is the estimated prompt size.
	Tokens int
	// Limit is the budget the prompt was checked against.
	Limit int
}

// Over reports whether the prompt exceeds its budget.
func (r Report) Over() bool { return r.Tokens > r.Limit }

// Check estimates msgs against maxTokens. A maxTokens <= 0 uses
// DefaultMaxContextTokens.
func Check(msgs []*schema.Message, maxTokens int) Report {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	return Report{Tokens: EstimateMessages(msgs), Limit: maxTokens}
}
