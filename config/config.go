package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported provider and backend names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"

	BackendMemory   = "memory"
	BackendPGVector = "pgvector"

	defaultOllamaURL            = "http://localhost:11434"
	defaultOllamaModel          = "llama3.2:1b"
	defaultOllamaEmbeddingModel = "nomic-embed-text"
	defaultOllamaDimension      = 768
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultOpenAIDimension      = 1536
)

// Config is the process configuration for the legalrag binary.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Journal   JournalConfig   `yaml:"journal"`
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// RetrieverConfig describes where evidence comes from.
type RetrieverConfig struct {
	Backend        string        `yaml:"backend"`
	TopK           int           `yaml:"top_k"`
	CorpusFile     string        `yaml:"corpus_file"`
	Embedder       string        `yaml:"embedder"`
	EmbeddingModel string        `yaml:"embedding_model"`
	EmbeddingKey   string        `yaml:"embedding_api_key"`
	EmbeddingURL   string        `yaml:"embedding_base_url"`
	Dimension      int           `yaml:"dimension"`
	PGDSN          string        `yaml:"pg_dsn"`
	PGTable        string        `yaml:"pg_table"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisDB        int           `yaml:"redis_db"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// PipelineConfig tunes the orchestration pipeline.
type PipelineConfig struct {
	PromptVersion        string `yaml:"prompt_version"`
	MaxQueries           int    `yaml:"max_queries"`
	RetrievalConcurrency int    `yaml:"retrieval_concurrency"`
	EvidenceTokenBudget  int    `yaml:"evidence_token_budget"`
	TokenizerModel       string `yaml:"tokenizer_model"`
}

// JournalConfig enables the MongoDB run journal when URI is set.
type JournalConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// Default returns the built-in configuration: a local Ollama model and the in-memory corpus.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    ProviderOllama,
			Model:       defaultOllamaModel,
			BaseURL:     defaultOllamaURL,
			Temperature: 0,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
			Burst:       1,
		},
		Retriever: RetrieverConfig{
			Backend:        BackendMemory,
			TopK:           2,
			Embedder:       ProviderOllama,
			EmbeddingModel: defaultOllamaEmbeddingModel,
			EmbeddingURL:   defaultOllamaURL,
			Dimension:      defaultOllamaDimension,
			PGTable:        "legal_chunks",
			CacheTTL:       10 * time.Minute,
		},
		Pipeline: PipelineConfig{
			PromptVersion:        "v1",
			MaxQueries:           3,
			RetrievalConcurrency: 4,
		},
		Journal: JournalConfig{
			Database:   "legalrag",
			Collection: "runs",
		},
	}
}

// Load reads an optional YAML file on top of the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("LLM_PROVIDER", &c.LLM.Provider)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	str("LLM_MODEL", &c.LLM.Model)
	str("LLM_BASE_URL", &c.LLM.BaseURL)

	switch c.LLM.Provider {
	case ProviderOpenAI:
		str("OPENAI_API_KEY", &c.LLM.APIKey)
	case ProviderClaude:
		str("ANTHROPIC_API_KEY", &c.LLM.APIKey)
	case ProviderGemini:
		str("GOOGLE_API_KEY", &c.LLM.APIKey)
	case ProviderOllama:
		str("OLLAMA_BASE_URL", &c.LLM.BaseURL)
	}
	c.LLM.dropOllamaDefaults()

	if v, ok := lookup("LLM_TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse LLM_TEMPERATURE: %w", err)
		}
		c.LLM.Temperature = f
	}
	if v, ok := lookup("RETRIEVER_TOP_K"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse RETRIEVER_TOP_K: %w", err)
		}
		c.Retriever.TopK = n
	}

	str("RETRIEVER_BACKEND", &c.Retriever.Backend)
	c.Retriever.Backend = strings.ToLower(c.Retriever.Backend)
	str("CORPUS_FILE", &c.Retriever.CorpusFile)
	str("PG_DSN", &c.Retriever.PGDSN)
	str("REDIS_ADDR", &c.Retriever.RedisAddr)
	str("MONGO_URI", &c.Journal.URI)

	str("EMBEDDER", &c.Retriever.Embedder)
	c.Retriever.Embedder = strings.ToLower(c.Retriever.Embedder)
	switch c.Retriever.Embedder {
	case ProviderOpenAI:
		str("OPENAI_API_KEY", &c.Retriever.EmbeddingKey)
		c.Retriever.switchOllamaDefaultsToOpenAI()
	case ProviderOllama:
		str("OLLAMA_BASE_URL", &c.Retriever.EmbeddingURL)
	}
	return nil
}

var hostedDefaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderClaude: "claude-sonnet-4-5-20250929",
	ProviderGemini: "gemini-2.0-flash",
}

// dropOllamaDefaults replaces the local Ollama endpoint and model with the hosted
// provider's own defaults when a hosted provider is selected.
func (l *LLMConfig) dropOllamaDefaults() {
	model, hosted := hostedDefaultModels[l.Provider]
	if !hosted {
		return
	}
	if l.BaseURL == defaultOllamaURL {
		l.BaseURL = ""
	}
	if l.Model == defaultOllamaModel {
		l.Model = model
	}
}

// switchOllamaDefaultsToOpenAI replaces embedding settings still at their Ollama
// defaults so selecting the OpenAI embedder alone is enough.
func (r *RetrieverConfig) switchOllamaDefaultsToOpenAI() {
	if r.EmbeddingURL == defaultOllamaURL {
		r.EmbeddingURL = ""
	}
	if r.EmbeddingModel == defaultOllamaEmbeddingModel {
		r.EmbeddingModel = defaultOpenAIEmbeddingModel
		if r.Dimension == defaultOllamaDimension {
			r.Dimension = defaultOpenAIDimension
		}
	}
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	v := NewValidator()
	v.ValidateLLM(c.LLM)
	v.ValidateRetriever(c.Retriever)
	v.ValidatePipeline(c.Pipeline)
	if c.Journal.URI != "" {
		v.ValidateMongoDB("journal", c.Journal.URI, c.Journal.Database, c.Journal.Collection)
	}
	return v.Error()
}
