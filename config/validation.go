package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator collects validation errors across chained checks.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, format string, args ...any) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// RequireNonEmpty validates that a string field is not blank
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "value cannot be empty")
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		return v.add(field, "value must be positive, got %d", value)
	}
	return v
}

// RequireNonNegative validates that an integer field is not below 0
func (v *Validator) RequireNonNegative(field string, value int) *Validator {
	if value < 0 {
		return v.add(field, "value must not be negative, got %d", value)
	}
	return v
}

// ValidateRange validates that an integer field is within [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %d and %d, got %d", min, max, value)
	}
	return v
}

// ValidateFloatRange validates that a float field is within [min, max]
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.add(field, "value must be between %.2f and %.2f, got %.2f", min, max, value)
	}
	return v
}

// ValidateDBNumber validates a Redis database number (0-15)
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

// ValidateOneOf validates that a string value is one of the allowed options
func (v *Validator) ValidateOneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if a == value {
			return v
		}
	}
	return v.add(field, "value must be one of %v, got %q", allowed, value)
}

// ValidateURL validates that value is an absolute http(s) or mongodb URL.
func (v *Validator) ValidateURL(field, value string) *Validator {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return v.add(field, "value must be an absolute URL, got %q", value)
	}
	return v
}

// ValidateLLM checks the provider selection and its credentials.
func (v *Validator) ValidateLLM(c LLMConfig) *Validator {
	v.ValidateOneOf("llm.provider", c.Provider, ProviderOllama, ProviderOpenAI, ProviderClaude, ProviderGemini)
	v.RequireNonEmpty("llm.model", c.Model)
	v.ValidateFloatRange("llm.temperature", c.Temperature, 0.0, 2.0)
	v.RequirePositive("llm.max_tokens", c.MaxTokens)
	if c.Timeout < 0 {
		v.add("llm.timeout", "value must not be negative, got %s", c.Timeout)
	}
	if c.RequestsPerSecond < 0 {
		v.add("llm.requests_per_second", "value must not be negative, got %.2f", c.RequestsPerSecond)
	}
	switch c.Provider {
	case ProviderOllama:
		v.ValidateURL("llm.base_url", c.BaseURL)
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
		v.RequireNonEmpty("llm.api_key", c.APIKey)
		if c.BaseURL != "" {
			v.ValidateURL("llm.base_url", c.BaseURL)
		}
	}
	return v
}

// ValidateRetriever checks the evidence backend and its optional cache.
func (v *Validator) ValidateRetriever(c RetrieverConfig) *Validator {
	v.ValidateOneOf("retriever.backend", c.Backend, BackendMemory, BackendPGVector)
	v.ValidateRange("retriever.top_k", c.TopK, 1, 10)
	v.ValidateOneOf("retriever.embedder", c.Embedder, ProviderOllama, ProviderOpenAI)
	v.RequireNonEmpty("retriever.embedding_model", c.EmbeddingModel)
	v.ValidateRange("retriever.dimension", c.Dimension, 1, 65535)
	switch c.Embedder {
	case ProviderOpenAI:
		v.RequireNonEmpty("retriever.embedding_api_key", c.EmbeddingKey)
	case ProviderOllama:
		v.ValidateURL("retriever.embedding_base_url", c.EmbeddingURL)
	}
	switch c.Backend {
	case BackendMemory:
		v.RequireNonEmpty("retriever.corpus_file", c.CorpusFile)
	case BackendPGVector:
		v.RequireNonEmpty("retriever.pg_dsn", c.PGDSN)
		v.RequireNonEmpty("retriever.pg_table", c.PGTable)
	}
	if c.RedisAddr != "" {
		v.ValidateDBNumber("retriever.redis_db", c.RedisDB)
		if c.CacheTTL <= 0 {
			v.add("retriever.cache_ttl", "value must be positive when the cache is enabled, got %s", c.CacheTTL)
		}
	}
	return v
}

// ValidatePipeline checks orchestration tuning.
func (v *Validator) ValidatePipeline(c PipelineConfig) *Validator {
	v.RequireNonEmpty("pipeline.prompt_version", c.PromptVersion)
	v.RequirePositive("pipeline.max_queries", c.MaxQueries)
	v.RequirePositive("pipeline.retrieval_concurrency", c.RetrievalConcurrency)
	v.RequireNonNegative("pipeline.evidence_token_budget", c.EvidenceTokenBudget)
	return v
}

// ValidateMongoDB checks a MongoDB connection triple under prefix.
func (v *Validator) ValidateMongoDB(prefix, uri, database, collection string) *Validator {
	v.ValidateURL(prefix+".uri", uri)
	v.RequireNonEmpty(prefix+".database", database)
	v.RequireNonEmpty(prefix+".collection", collection)
	return v
}

// HasErrors returns true if there are any validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns a combined error message or nil if no errors
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}

	var b strings.Builder
	b.WriteString("configuration validation failed:\n")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}
