// Package provider builds a language model from configuration.
package provider

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/legalrag/config"
	"github.com/sweetpotato0/legalrag/contrib/provider/claude"
	"github.com/sweetpotato0/legalrag/contrib/provider/gemini"
	"github.com/sweetpotato0/legalrag/contrib/provider/ollama"
	"github.com/sweetpotato0/legalrag/contrib/provider/openai"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

// New returns the configured model wrapped with the timeout and rate limit
// decorators. A single limiter is shared by every call made through the result.
func New(ctx context.Context, cfg config.LLMConfig) (llm.LanguageModel, error) {
	var (
		model llm.LanguageModel
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOllama:
		model = ollama.New(&ollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	case config.ProviderOpenAI:
		oc := openai.DefaultConfig()
		oc.APIKey = cfg.APIKey
		oc.BaseURL = cfg.BaseURL
		oc.Model = cfg.Model
		oc.Temperature = cfg.Temperature
		oc.MaxTokens = int64(cfg.MaxTokens)
		model = openai.New(oc)
	case config.ProviderClaude:
		cc := claude.DefaultConfig(cfg.APIKey, cfg.BaseURL)
		cc.Model = cfg.Model
		cc.Temperature = cfg.Temperature
		cc.MaxTokens = int64(cfg.MaxTokens)
		model = claude.New(cc)
	case config.ProviderGemini:
		gc := gemini.DefaultConfig(cfg.APIKey)
		gc.BaseURL = cfg.BaseURL
		gc.Model = cfg.Model
		gc.Temperature = float32(cfg.Temperature)
		gc.MaxTokens = int32(cfg.MaxTokens)
		model, err = gemini.New(ctx, gc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q: %w", cfg.Provider, errorskg.ErrInvalidInput)
	}

	model = llm.WithTimeout(model, cfg.Timeout)
	model = llm.WithRateLimit(model, llm.NewLimiter(cfg.RequestsPerSecond, cfg.Burst))
	return model, nil
}
