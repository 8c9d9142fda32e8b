package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

const providerName = "claude"

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
	// MaxRetries overrides the SDK retry count when non-negative.
	MaxRetries int
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Model:      "claude-sonnet-4-5-20250929",
		MaxTokens:  1024,
		MaxRetries: -1,
	}
}

// Provider implements llm.LanguageModel on the Messages API. Structured output is
// obtained by forcing a single tool call whose input schema is the requested schema.
type Provider struct {
	config *Config
	client anthropic.Client
}

var _ llm.LanguageModel = (*Provider)(nil)

// New creates a new Claude provider using official SDK
func New(config *Config) *Provider {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithAuthToken(""),
	}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	if config.MaxRetries >= 0 {
		options = append(options, option.WithMaxRetries(config.MaxRetries))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Generate concatenates the text blocks of the reply.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := p.client.Messages.New(ctx, p.params(prompt))
	if err != nil {
		return "", wrap(err, false)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// GenerateStructured forces a tool call named after the schema and returns its input.
func (p *Provider) GenerateStructured(ctx context.Context, prompt string, schema llm.Schema) (json.RawMessage, error) {
	if schema.Name == "" {
		return nil, fmt.Errorf("%s: schema name required: %w", providerName, errorskg.ErrUnsupportedOutputMode)
	}
	tool := anthropic.ToolParam{
		Name:        schema.Name,
		InputSchema: anthropic.ToolInputSchemaParam{Required: schema.Required()},
	}
	if props := schema.Properties(); props != nil {
		tool.InputSchema.Properties = props
	}
	if schema.Description != "" {
		tool.Description = anthropic.String(schema.Description)
	}

	params := p.params(prompt)
	params.Tools = []anthropic.ToolUnionParam{{OfTool: &tool}}
	params.ToolChoice = anthropic.ToolChoiceParamOfTool(schema.Name)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrap(err, true)
	}
	for _, block := range msg.Content {
		if block.Type == "tool_use" && block.Name == schema.Name {
			return block.Input, nil
		}
	}
	return nil, fmt.Errorf("%s: no %s tool call in reply: %w", providerName, schema.Name, errorskg.ErrMalformedOutput)
}

func (p *Provider) params(prompt string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		MaxTokens: p.config.MaxTokens,
	}
	if p.config.Temperature >= 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}
	return params
}

func wrap(err error, structured bool) error {
	var apiErr *anthropic.Error
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.WrapError(providerName, status, structured, err)
}
