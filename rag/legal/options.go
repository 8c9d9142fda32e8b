package legal

import (
	"log/slog"
	"strings"

	"github.com/sweetpotato0/legalrag/pkg/metrics"
	"github.com/sweetpotato0/legalrag/prompt"
	"github.com/sweetpotato0/legalrag/rag/tokenizer"
)

// Config controls the legal QA pipeline. Stage prompts are resolved from the prompt
// manager by name and PromptVersion.
type Config struct {
	Name                 string // Logical name for logging
	TopK                 int    // Snippets fetched per search query, 1..10
	MaxQueries           int    // Upper bound on rewritten queries
	RetrievalConcurrency int    // Parallel per-query lookups
	EvidenceTokenBudget  int    // Max tokens of evidence in the answer prompt, 0 disables trimming
	MinSuggestions       int
	MaxSuggestions       int
	DigestSnippets       int // Snippets summarised for remediation
	DigestPreviewRunes   int
	ShortQuestionRunes   int // Questions shorter than this with a '?' need clarification
	PromptVersion        string

	Disclaimer           string // Appended once to every terminal answer
	ClarificationMessage string // Fixed template used when facts are missing

	prompts   *prompt.Manager
	tokenizer tokenizer.Tokenizer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithName sets the logical pipeline name.
func WithName(name string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(name) != "" {
			cfg.Name = name
		}
	}
}

// WithTopK overrides how many snippets each query retrieves. Values outside 1..10 are ignored.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k >= 1 && k <= 10 {
			cfg.TopK = k
		}
	}
}

// WithMaxQueries caps how many rewritten queries reach retrieval.
func WithMaxQueries(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxQueries = n
		}
	}
}

// WithRetrievalConcurrency bounds the per-query fan-out.
func WithRetrievalConcurrency(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.RetrievalConcurrency = n
		}
	}
}

// WithEvidenceTokenBudget trims the evidence block of the answer prompt from the tail
// until it fits. tok counts tokens; a nil tok keeps the current tokenizer.
func WithEvidenceTokenBudget(budget int, tok tokenizer.Tokenizer) Option {
	return func(cfg *Config) {
		if budget >= 0 {
			cfg.EvidenceTokenBudget = budget
		}
		if tok != nil {
			cfg.tokenizer = tok
		}
	}
}

// WithPromptVersion selects which registered prompt version every stage uses.
func WithPromptVersion(version string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(version) != "" {
			cfg.PromptVersion = version
		}
	}
}

// WithPrompts replaces the prompt manager. It must hold every stage prompt at the
// configured version.
func WithPrompts(m *prompt.Manager) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.prompts = m
		}
	}
}

// WithDisclaimer overrides the disclaimer appended to every answer.
func WithDisclaimer(text string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(text) != "" {
			cfg.Disclaimer = text
		}
	}
}

// WithClarificationMessage overrides the message sent when a question lacks facts.
func WithClarificationMessage(text string) Option {
	return func(cfg *Config) {
		if strings.TrimSpace(text) != "" {
			cfg.ClarificationMessage = text
		}
	}
}

// WithMetrics records run, stage and fallback metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *Config) {
		cfg.metrics = m
	}
}

// WithLogger overrides the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

const defaultDisclaimer = "---\n" +
	"**Aviso Legal:** Eu sou um assistente de inteligência artificial e as minhas respostas são geradas com base " +
	"em documentos públicos, tendo um caráter puramente informativo. **Este conteúdo não constitui e não substitui " +
	"uma assessoria jurídica formal.** Sempre consulte um profissional qualificado para tratar de casos específicos."

const defaultClarification = "Para responder com precisão, preciso de mais detalhes sobre a situação. " +
	"Descreva o que aconteceu, o produto ou serviço envolvido, quando ocorreu e qual resultado você procura."

func defaultConfig() *Config {
	return &Config{
		Name:                 "legal-rag",
		TopK:                 2,
		MaxQueries:           3,
		RetrievalConcurrency: 4,
		MinSuggestions:       3,
		MaxSuggestions:       5,
		DigestSnippets:       5,
		DigestPreviewRunes:   200,
		ShortQuestionRunes:   15,
		PromptVersion:        DefaultPromptVersion,
		Disclaimer:           defaultDisclaimer,
		ClarificationMessage: defaultClarification,
		tokenizer:            tokenizer.NewWordTokenizer(),
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.prompts == nil {
		cfg.prompts = DefaultPrompts()
	}
	return cfg
}
