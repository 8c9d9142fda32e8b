// Package ollama implements llm.LanguageModel against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

const providerName = "ollama"

// Config holds Ollama provider configuration
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultConfig returns the configuration for a local llama3.2:1b model.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:11434",
		Model:   "llama3.2:1b",
		Timeout: 300 * time.Second,
	}
}

// Provider calls the /api/generate endpoint without streaming.
type Provider struct {
	config *Config
	client *http.Client
}

var _ llm.LanguageModel = (*Provider)(nil)

// New creates a new Ollama provider.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "llama3.2:1b"
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  any            `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate produces a response for prompt.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.generate(ctx, prompt, nil)
}

// GenerateStructured passes the schema as the request format so the server constrains
// decoding to it.
func (p *Provider) GenerateStructured(ctx context.Context, prompt string, schema llm.Schema) (json.RawMessage, error) {
	if schema.Definition == nil {
		return nil, fmt.Errorf("%s: schema %s has no definition: %w", providerName, schema.Name, errorskg.ErrUnsupportedOutputMode)
	}
	out, err := p.generate(ctx, prompt, schema.Definition)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("%s: empty structured reply: %w", providerName, errorskg.ErrMalformedOutput)
	}
	return json.RawMessage(out), nil
}

func (p *Provider) generate(ctx context.Context, prompt string, format any) (string, error) {
	reqBody := generateRequest{
		Model:  p.config.Model,
		Prompt: prompt,
		Stream: false,
		Format: format,
		Options: map[string]any{
			"temperature": p.config.Temperature,
		},
	}
	if p.config.MaxTokens > 0 {
		reqBody.Options["num_predict"] = p.config.MaxTokens
	}
	structured := format != nil

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.config.BaseURL, "/")+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", llm.WrapError(providerName, 0, structured, fmt.Errorf("calling Ollama: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", llm.WrapError(providerName, resp.StatusCode, structured,
			fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%s: decoding response: %v: %w", providerName, err, errorskg.ErrMalformedOutput)
	}
	if genResp.Error != "" {
		return "", llm.WrapError(providerName, 0, structured, fmt.Errorf("Ollama error: %s", genResp.Error))
	}
	return genResp.Response, nil
}
