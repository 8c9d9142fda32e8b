package legal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/prompt"
)

// clarityRule marks a question as clear when pattern matches and, if companions is
// non-empty, at least one companion term occurs in the question.
type clarityRule struct {
	pattern    *regexp.Regexp
	companions []string
}

// Rules are evaluated in order against the lower-cased question; the first match wins.
var clearRules = []clarityRule{
	// conceptual
	{pattern: regexp.MustCompile(`o que é.*\?`)},
	{pattern: regexp.MustCompile(`me fale sobre.*\?`)},
	{pattern: regexp.MustCompile(`defin.*\?`)},
	{pattern: regexp.MustCompile(`como funciona.*\?`)},
	{pattern: regexp.MustCompile(`.*é.*prática abusiva\?`)},
	{pattern: regexp.MustCompile(`.*é.*permitido\?`)},
	{pattern: regexp.MustCompile(`.*propaganda enganosa.*\?`)},
	{pattern: regexp.MustCompile(`.*venda casada.*\?`)},
	{pattern: regexp.MustCompile(`.*dois preços.*\?`)},
	{pattern: regexp.MustCompile(`quais.*direitos.*consumidor\?`), companions: []string{"básicos", "fundamentais", "principais"}},

	// price discrepancy
	{pattern: regexp.MustCompile(`preço.*diferente|diferente.*preço`), companions: []string{"placa", "caixa", "r$", "real"}},
	{pattern: regexp.MustCompile(`placa.*r\$\d+.*caixa.*r\$\d+`)},
	{pattern: regexp.MustCompile(`anunciado.*r\$\d+.*cobr.*r\$\d+`)},

	// defective product
	{pattern: regexp.MustCompile(`produto.*defeituoso.*dias`), companions: []string{"comprei", "prazo"}},
	{pattern: regexp.MustCompile(`comprei.*defeito.*trocar`)},

	// broken promotion or offer
	{pattern: regexp.MustCompile(`promoção.*recusa|oferta.*descumprir`), companions: []string{"loja", "estabelecimento"}},
}

// Matched against the trimmed, lower-cased question.
var vagueRules = []*regexp.Regexp{
	regexp.MustCompile(`^posso processar\?*$`),
	regexp.MustCompile(`^tenho direito\?*$`),
	regexp.MustCompile(`^o que fazer\?*$`),
	regexp.MustCompile(`^é legal\?*$`),
	regexp.MustCompile(`^quais são meus direitos\?*$`),
	regexp.MustCompile(`^isso pode dar problema\?*$`),
}

var (
	consumerKeywords       = []string{"preço", "produto", "loja", "compra", "venda", "defeito", "promoção", "mercado"}
	constitutionalKeywords = []string{"direito fundamental", "constituição", "liberdade", "igualdade"}
)

type supervisor struct {
	llm        llm.LanguageModel
	prompts    *prompt.Manager
	version    string
	shortRunes int
}

func newSupervisor(model llm.LanguageModel, cfg *Config) *supervisor {
	return &supervisor{
		llm:        model,
		prompts:    cfg.prompts,
		version:    cfg.PromptVersion,
		shortRunes: cfg.ShortQuestionRunes,
	}
}

// Triage decides intent and whether the question carries enough facts. The result is
// always usable: capability errors resolve to proceeding with low confidence, and the
// error only reports why the fallback was taken.
func (s *supervisor) Triage(ctx context.Context, question string) (TriageResult, error) {
	if strings.TrimSpace(question) == "" {
		return TriageResult{
			Intent:             IntentUnknown,
			NeedsClarification: true,
			Confidence:         ConfidenceLow,
			Method:             MethodDeterministic,
		}, nil
	}

	intent := ClassifyIntent(question)
	if needs, decided := DeterministicCheck(question, s.shortRunes); decided {
		confidence := ConfidenceHigh
		if needs {
			confidence = ConfidenceLow
		}
		return TriageResult{
			Intent:             intent,
			NeedsClarification: needs,
			Confidence:         confidence,
			Method:             MethodDeterministic,
		}, nil
	}

	fallback := TriageResult{
		Intent:             intent,
		NeedsClarification: false,
		Confidence:         ConfidenceLow,
		Method:             MethodFallback,
	}
	if s.llm == nil {
		return fallback, fmt.Errorf("triage: %w", errorskg.ErrModelUnavailable)
	}
	text, err := s.prompts.Render(PromptTriage, s.version, map[string]any{"question": question})
	if err != nil {
		return fallback, fmt.Errorf("triage prompt: %w", err)
	}
	out, err := s.llm.Generate(ctx, text)
	if err != nil {
		return fallback, fmt.Errorf("triage generation failed: %w", err)
	}
	needs, ok := parseSufficiency(out)
	if !ok {
		return fallback, fmt.Errorf("triage answer %q has no yes/no token: %w", trimForLog(out, 40), errorskg.ErrMalformedOutput)
	}
	return TriageResult{
		Intent:             intent,
		NeedsClarification: needs,
		Confidence:         ConfidenceMedium,
		Method:             MethodLLM,
	}, nil
}

// DeterministicCheck applies the rule layer. decided is false when no rule is
// conclusive. shortRunes <= 0 uses 15.
func DeterministicCheck(question string, shortRunes int) (needsClarification, decided bool) {
	if shortRunes <= 0 {
		shortRunes = 15
	}
	lower := strings.ToLower(question)
	for _, rule := range clearRules {
		if !rule.pattern.MatchString(lower) {
			continue
		}
		if len(rule.companions) == 0 || containsAny(lower, rule.companions) {
			return false, true
		}
	}

	trimmed := strings.TrimSpace(lower)
	for _, pattern := range vagueRules {
		if pattern.MatchString(trimmed) {
			return true, true
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(question)) < shortRunes && strings.Contains(question, "?") {
		return true, true
	}
	return false, false
}

// ClassifyIntent maps a question to a topical intent by keyword. Consumer vocabulary is
// checked first; questions matching neither list default to consumer.
func ClassifyIntent(question string) Intent {
	if strings.TrimSpace(question) == "" {
		return IntentUnknown
	}
	lower := strings.ToLower(question)
	switch {
	case containsAny(lower, consumerKeywords):
		return IntentConsumer
	case containsAny(lower, constitutionalKeywords):
		return IntentConstitutional
	default:
		return IntentConsumer
	}
}

// parseSufficiency reads the first SIM/NAO token of the model answer. A "no" means the
// question lacks facts. English YES/NO count only as the whole reply, since "no" is
// also a Portuguese contraction.
func parseSufficiency(out string) (needsClarification, ok bool) {
	fields := strings.FieldsFunc(strings.ToUpper(out), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(fields) == 1 {
		switch fields[0] {
		case "YES":
			return false, true
		case "NO":
			return true, true
		}
	}
	for _, f := range fields {
		switch f {
		case "SIM":
			return false, true
		case "NAO", "NÃO":
			return true, true
		}
	}
	return false, false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
