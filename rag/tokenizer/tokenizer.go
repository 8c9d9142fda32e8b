package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer counts model tokens for prompt budgeting.
type Tokenizer interface {
	CountTokens(text string) int
}

var _ Tokenizer = (*WordTokenizer)(nil)

// WordTokenizer approximates token counts without a model vocabulary:
// letter/digit runs count as one token, every other non-space rune counts as one.
type WordTokenizer struct{}

// NewWordTokenizer returns a vocabulary-free tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

func (t *WordTokenizer) CountTokens(text string) int {
	return len(splitTokens(text))
}

func splitTokens(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			buf.WriteRune(r)
		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()
	return toks
}

// FitBudget returns the longest prefix of blocks whose joined token count, using sep
// between blocks, stays within budget. A non-positive budget keeps every block.
// At least one block is kept when blocks is non-empty.
func FitBudget(tok Tokenizer, blocks []string, sep string, budget int) []string {
	if tok == nil || budget <= 0 || len(blocks) == 0 {
		return blocks
	}
	sepCost := tok.CountTokens(sep)
	total := 0
	for i, block := range blocks {
		cost := tok.CountTokens(block)
		if i > 0 {
			cost += sepCost
		}
		if total+cost > budget {
			if i == 0 {
				return blocks[:1]
			}
			return blocks[:i]
		}
		total += cost
	}
	return blocks
}
