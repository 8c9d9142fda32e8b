package legal

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/prompt"
)

// enumerationCutset is stripped from the start of every rewritten query line.
const enumerationCutset = "0123456789.)-* \t"

type rewriter struct {
	llm        llm.LanguageModel
	prompts    *prompt.Manager
	version    string
	maxQueries int
}

func newRewriter(model llm.LanguageModel, cfg *Config) *rewriter {
	return &rewriter{
		llm:        model,
		prompts:    cfg.prompts,
		version:    cfg.PromptVersion,
		maxQueries: cfg.MaxQueries,
	}
}

// Expand asks the model for alternative search queries in formal legal terminology.
func (r *rewriter) Expand(ctx context.Context, question string) ([]string, error) {
	if r.llm == nil {
		return nil, fmt.Errorf("rewriter: %w", errorskg.ErrModelUnavailable)
	}
	text, err := r.prompts.Render(PromptRewrite, r.version, map[string]any{
		"question": question,
		"max":      r.maxQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("rewriter prompt: %w", err)
	}
	out, err := r.llm.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("rewriter generation failed: %w", err)
	}
	queries := ParseQueries(out, r.maxQueries)
	if len(queries) == 0 {
		return nil, fmt.Errorf("rewriter produced no queries: %w", errorskg.ErrMalformedOutput)
	}
	return queries, nil
}

// ParseQueries splits model output into clean queries: enumeration prefixes are stripped,
// blank lines dropped and duplicates removed keeping the first occurrence. max <= 0
// means no cap.
func ParseQueries(out string, max int) []string {
	seen := make(map[string]struct{})
	var queries []string
	for _, line := range strings.Split(out, "\n") {
		q := strings.TrimSpace(strings.TrimLeft(line, enumerationCutset))
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
		if max > 0 && len(queries) == max {
			break
		}
	}
	return queries
}
