package legal

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/prompt"
	"github.com/sweetpotato0/legalrag/rag/tokenizer"
)

const evidenceSeparator = "\n\n"

type answerer struct {
	llm       llm.LanguageModel
	prompts   *prompt.Manager
	version   string
	tokenizer tokenizer.Tokenizer
	budget    int
}

func newAnswerer(model llm.LanguageModel, cfg *Config) *answerer {
	return &answerer{
		llm:       model,
		prompts:   cfg.prompts,
		version:   cfg.PromptVersion,
		tokenizer: cfg.tokenizer,
		budget:    cfg.EvidenceTokenBudget,
	}
}

// Answer writes a cited answer grounded in snippets. Without evidence it returns
// NoInformationAnswer and makes no model call.
func (a *answerer) Answer(ctx context.Context, question string, snippets []evidence.Snippet) (string, error) {
	if len(snippets) == 0 {
		return NoInformationAnswer, nil
	}
	if a.llm == nil {
		return "", fmt.Errorf("answerer: %w", errorskg.ErrModelUnavailable)
	}
	blocks := tokenizer.FitBudget(a.tokenizer, formatEvidenceBlocks(snippets), evidenceSeparator, a.budget)
	text, err := a.prompts.Render(PromptAnswer, a.version, map[string]any{
		"question": question,
		"evidence": strings.Join(blocks, evidenceSeparator),
		"fallback": NoInformationAnswer,
	})
	if err != nil {
		return "", fmt.Errorf("answer prompt: %w", err)
	}
	out, err := a.llm.Generate(ctx, text)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("answer generation returned empty text: %w", errorskg.ErrMalformedOutput)
	}
	return out, nil
}

// formatEvidenceBlocks renders one numbered block per snippet: label, locator and text joined by dashes.
func formatEvidenceBlocks(snippets []evidence.Snippet) []string {
	blocks := make([]string, len(snippets))
	for i, s := range snippets {
		s = s.Normalize()
		blocks[i] = fmt.Sprintf("[%d] %s — %s — %s", i+1, s.SourceLabel, s.Locator, strings.TrimSpace(s.Text))
	}
	return blocks
}

// FormatEvidence renders snippets the way the answer and verify prompts see them.
func FormatEvidence(snippets []evidence.Snippet) string {
	if len(snippets) == 0 {
		return "(no evidence retrieved)"
	}
	return strings.Join(formatEvidenceBlocks(snippets), evidenceSeparator)
}
