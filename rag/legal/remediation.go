package legal

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/prompt"
)

var numberedPrefix = regexp.MustCompile(`^\d+[.)]\s+`)

// Canned reformulations used when the model cannot help.
var (
	tiedSaleSuggestions = []string{
		"O que é venda condicionada?",
		"Práticas abusivas no código do consumidor",
		"Artigo 39 do CDC sobre venda casada",
	}
	advertisingSuggestions = []string{
		"O que é publicidade enganosa?",
		"Artigo 37 do código do consumidor",
		"Tipos de propaganda enganosa no CDC",
	}
	constitutionalSuggestions = []string{
		"Quais direitos fundamentais estão no artigo 5º da Constituição?",
		"O que a Constituição Federal diz sobre igualdade?",
		"Garantias constitucionais de liberdade de expressão",
	}
	genericSuggestions = []string{
		"Reformule usando termos mais específicos",
		"Tente usar vocabulário jurídico",
		"Seja mais específico sobre o contexto",
	}
)

type remediator struct {
	llm          llm.LanguageModel
	prompts      *prompt.Manager
	version      string
	min, max     int
	digestCount  int
	previewRunes int
}

func newRemediator(model llm.LanguageModel, cfg *Config) *remediator {
	return &remediator{
		llm:          model,
		prompts:      cfg.prompts,
		version:      cfg.PromptVersion,
		min:          cfg.MinSuggestions,
		max:          cfg.MaxSuggestions,
		digestCount:  cfg.DigestSnippets,
		previewRunes: cfg.DigestPreviewRunes,
	}
}

// Suggest returns between min and max reformulations of question. It always returns
// usable suggestions; the error reports why canned ones were used, if they were.
func (r *remediator) Suggest(ctx context.Context, question string, snippets []evidence.Snippet, reason string, intent Intent) ([]string, error) {
	canned := CannedSuggestions(question, intent)
	if r.llm == nil {
		return r.topUp(nil, canned), fmt.Errorf("remediation: %w", errorskg.ErrModelUnavailable)
	}
	text, err := r.prompts.Render(PromptRemediate, r.version, map[string]any{
		"question": question,
		"digest":   r.digest(snippets),
		"reason":   reason,
		"intent":   string(intent),
		"min":      r.min,
		"max":      r.max,
	})
	if err != nil {
		return r.topUp(nil, canned), fmt.Errorf("remediation prompt: %w", err)
	}
	out, err := r.llm.Generate(ctx, text)
	if err != nil {
		return r.topUp(nil, canned), fmt.Errorf("remediation generation failed: %w", err)
	}
	suggestions := ParseSuggestions(out, r.max)
	if len(suggestions) < r.min {
		return r.topUp(suggestions, canned), fmt.Errorf("remediation produced %d usable suggestions: %w", len(suggestions), errorskg.ErrMalformedOutput)
	}
	return suggestions, nil
}

// topUp appends canned entries not already present until min is reached.
func (r *remediator) topUp(have, canned []string) []string {
	out := append([]string(nil), have...)
	for _, c := range canned {
		if len(out) >= r.min {
			break
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	for _, c := range genericSuggestions {
		if len(out) >= r.min {
			break
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// digest summarises the evidence: distinct locators first, then one preview line per
// snippet, both capped at digestCount.
func (r *remediator) digest(snippets []evidence.Snippet) string {
	if len(snippets) == 0 {
		return "No specific document was retrieved."
	}
	var lines []string
	if locs := evidence.Locators(snippets, r.digestCount); len(locs) > 0 {
		lines = append(lines, "Locators found: "+strings.Join(locs, ", "))
	}
	for i, s := range snippets {
		if i >= r.digestCount {
			break
		}
		s = s.Normalize()
		lines = append(lines, fmt.Sprintf("- %s: %s - %s...", s.SourceLabel, s.Locator, truncateRunes(strings.TrimSpace(s.Text), r.previewRunes)))
	}
	return strings.Join(lines, "\n")
}

// ParseSuggestions keeps one suggestion per non-empty line, skipping bullet-prefixed
// lines, up to max entries.
func ParseSuggestions(out string, max int) []string {
	var suggestions []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
			continue
		}
		line = strings.TrimSpace(numberedPrefix.ReplaceAllString(line, ""))
		if line == "" || slices.Contains(suggestions, line) {
			continue
		}
		suggestions = append(suggestions, line)
		if max > 0 && len(suggestions) == max {
			break
		}
	}
	return suggestions
}

// CannedSuggestions picks the fixed reformulations for the question's topic.
func CannedSuggestions(question string, intent Intent) []string {
	lower := strings.ToLower(question)
	var picked []string
	switch {
	case strings.Contains(lower, "venda casada"):
		picked = tiedSaleSuggestions
	case strings.Contains(lower, "propaganda") || strings.Contains(lower, "publicidade"):
		picked = advertisingSuggestions
	case intent == IntentConstitutional:
		picked = constitutionalSuggestions
	default:
		picked = genericSuggestions
	}
	return append([]string(nil), picked...)
}

// remediationMessage explains the failure and lists the suggestions. The rejected answer
// is never quoted; a reason that embeds it is left out.
func remediationMessage(reason, rejected string, suggestions []string) string {
	var b strings.Builder
	b.WriteString("Não consegui gerar uma resposta confiável com base nos documentos disponíveis.")
	reason = strings.TrimSpace(reason)
	rejected = strings.TrimSpace(rejected)
	if reason != "" && (rejected == "" || !strings.Contains(reason, rejected)) {
		fmt.Fprintf(&b, " (Motivo: %s)", reason)
	}
	b.WriteString("\n\nTente reformular a sua pergunta, por exemplo:\n")
	for _, s := range suggestions {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
