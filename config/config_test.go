package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultMatchesLocalSetup(t *testing.T) {
	cfg := Default()
	if cfg.LLM.Provider != ProviderOllama || cfg.LLM.Model != "llama3.2:1b" {
		t.Fatalf("unexpected default model %s/%s", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0 || cfg.Retriever.TopK != 2 {
		t.Fatalf("unexpected defaults: temperature=%v topK=%d", cfg.LLM.Temperature, cfg.Retriever.TopK)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(lookupFrom(map[string]string{
		"LLM_PROVIDER":      " OpenAI ",
		"LLM_MODEL":         "gpt-4o-mini",
		"OPENAI_API_KEY":    "sk-test",
		"ANTHROPIC_API_KEY": "ignored",
		"RETRIEVER_BACKEND": "PGVECTOR",
		"PG_DSN":            "postgres://localhost/legal",
		"REDIS_ADDR":        "localhost:6379",
		"MONGO_URI":         "mongodb://localhost:27017",
		"LLM_TEMPERATURE":   "0.2",
		"RETRIEVER_TOP_K":   "4",
		"EMBEDDER":          "openai",
	}))
	if err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.Model != "gpt-4o-mini" || cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Retriever.Backend != BackendPGVector || cfg.Retriever.PGDSN == "" || cfg.Retriever.RedisAddr == "" {
		t.Fatalf("unexpected retriever config %+v", cfg.Retriever)
	}
	if cfg.Retriever.EmbeddingKey != "sk-test" {
		t.Fatalf("embedding key not taken from OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL != "" {
		t.Fatalf("ollama base url must not leak into a hosted provider: %q", cfg.LLM.BaseURL)
	}
	if cfg.Retriever.EmbeddingURL != "" || cfg.Retriever.EmbeddingModel != "text-embedding-3-small" || cfg.Retriever.Dimension != 1536 {
		t.Fatalf("ollama embedding defaults not replaced: %+v", cfg.Retriever)
	}
	if cfg.LLM.Temperature != 0.2 || cfg.Retriever.TopK != 4 {
		t.Fatalf("numeric overrides not applied: %+v", cfg)
	}
	if cfg.Journal.URI != "mongodb://localhost:27017" {
		t.Fatalf("journal uri not applied")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestApplyEnvProviderKey(t *testing.T) {
	cfg := Default()
	if err := cfg.applyEnv(lookupFrom(map[string]string{
		"LLM_PROVIDER":      "claude",
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
	})); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.LLM.APIKey != "sk-ant" {
		t.Fatalf("APIKey = %q, want the anthropic key", cfg.LLM.APIKey)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	if err := cfg.applyEnv(lookupFrom(map[string]string{"RETRIEVER_TOP_K": "two"})); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legalrag.yaml")
	content := `
llm:
  model: llama3.1:8b
  timeout: 30s
retriever:
  corpus_file: corpus.json
  top_k: 3
pipeline:
  evidence_token_budget: 800
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("RETRIEVER_BACKEND", "")
	t.Setenv("RETRIEVER_TOP_K", "")
	t.Setenv("EMBEDDER", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "llama3.1:8b" || cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("yaml llm not applied: %+v", cfg.LLM)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Fatalf("default provider lost: %s", cfg.LLM.Provider)
	}
	if cfg.Retriever.TopK != 3 || cfg.Pipeline.EvidenceTokenBudget != 800 || cfg.Pipeline.MaxQueries != 3 {
		t.Fatalf("unexpected merged config: %+v %+v", cfg.Retriever, cfg.Pipeline)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("RETRIEVER_BACKEND", "")
	t.Setenv("CORPUS_FILE", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error without a corpus file")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestLoadExampleFile(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "LLM_MODEL", "RETRIEVER_BACKEND", "EMBEDDER", "MONGO_URI", "REDIS_ADDR", "PG_DSN"} {
		t.Setenv(key, "")
	}
	cfg, err := Load(filepath.Join("..", "legalrag.example.yaml"))
	if err != nil {
		t.Fatalf("example config must validate: %v", err)
	}
	if cfg.Retriever.CorpusFile != "data/corpus.yaml" || cfg.LLM.Timeout != time.Minute || cfg.Retriever.CacheTTL != 10*time.Minute {
		t.Fatalf("unexpected example config %+v", cfg)
	}
}

func TestHostedProviderDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.applyEnv(lookupFrom(map[string]string{"LLM_PROVIDER": "claude", "ANTHROPIC_API_KEY": "k"})); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.LLM.Model != "claude-sonnet-4-5-20250929" || cfg.LLM.BaseURL != "" {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}

	cfg = Default()
	if err := cfg.applyEnv(lookupFrom(map[string]string{"LLM_PROVIDER": "gemini", "LLM_MODEL": "gemini-2.5-pro"})); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Fatalf("explicit model must win, got %s", cfg.LLM.Model)
	}
}
