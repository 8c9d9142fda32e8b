package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"google.golang.org/genai"
)

const providerName = "gemini"

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-2.0-flash",
		MaxTokens: 1024,
	}
}

// Provider implements llm.LanguageModel on the Gemini API. Structured output uses
// the JSON response MIME type together with a response JSON schema.
type Provider struct {
	config *Config
	client *genai.Client
}

var _ llm.LanguageModel = (*Provider)(nil)

// New creates a Gemini provider backed by the genai SDK.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required: %w", errorskg.ErrInvalidInput)
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Generate returns the text of the first candidate.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, genai.Text(prompt), p.generationConfig())
	if err != nil {
		return "", wrap(err, false)
	}
	return resp.Text(), nil
}

// GenerateStructured requests application/json output constrained by the schema.
func (p *Provider) GenerateStructured(ctx context.Context, prompt string, schema llm.Schema) (json.RawMessage, error) {
	cfg := p.generationConfig()
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseJsonSchema = schema.Definition

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, wrap(err, true)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: empty structured reply: %w", providerName, errorskg.ErrMalformedOutput)
	}
	return json.RawMessage(text), nil
}

func (p *Provider) generationConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		cfg.MaxOutputTokens = p.config.MaxTokens
	}
	return cfg
}

func wrap(err error, structured bool) error {
	var apiErr genai.APIError
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	}
	return llm.WrapError(providerName, status, structured, err)
}
