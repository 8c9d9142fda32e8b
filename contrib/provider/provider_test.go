package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweetpotato0/legalrag/config"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

func TestNewUnknownProvider(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Provider = "cohere"
	if _, err := New(context.Background(), cfg); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	cfg := config.Default().LLM
	cfg.Provider = config.ProviderGemini
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestNewBuildsEveryProvider(t *testing.T) {
	for _, name := range []string{config.ProviderOllama, config.ProviderOpenAI, config.ProviderClaude, config.ProviderGemini} {
		cfg := config.Default().LLM
		cfg.Provider = name
		cfg.APIKey = "test"
		if name != config.ProviderOllama {
			cfg.BaseURL = "http://127.0.0.1:1"
		}
		model, err := New(context.Background(), cfg)
		if err != nil || model == nil {
			t.Fatalf("%s: New = %v, %v", name, model, err)
		}
	}
}

func TestNewAppliesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "late", "done": true})
	}))
	defer server.Close()

	cfg := config.Default().LLM
	cfg.BaseURL = server.URL
	cfg.Timeout = 20 * time.Millisecond
	model, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := model.Generate(context.Background(), "p"); !errors.Is(err, errorskg.ErrModelTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
