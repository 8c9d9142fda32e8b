package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

const providerName = "openai"

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
	// MaxRetries overrides the SDK retry count when non-negative.
	MaxRetries int
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Model:      "gpt-4o-mini",
		MaxTokens:  1024,
		MaxRetries: -1,
	}
}

// Provider implements llm.LanguageModel on the chat completions API.
type Provider struct {
	config *Config
	client openai.Client
}

var _ llm.LanguageModel = (*Provider)(nil)

// New creates a new OpenAI provider using official SDK
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = string(openai.ChatModelGPT4oMini)
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	if config.MaxRetries >= 0 {
		options = append(options, option.WithMaxRetries(config.MaxRetries))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(options...),
	}
}

// Generate returns the first choice for a single user message.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, p.params(prompt))
	if err != nil {
		return "", wrap(err, false)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned: %w", providerName, errorskg.ErrMalformedOutput)
	}
	return completion.Choices[0].Message.Content, nil
}

// GenerateStructured requests a strict json_schema response format.
func (p *Provider) GenerateStructured(ctx context.Context, prompt string, schema llm.Schema) (json.RawMessage, error) {
	params := p.params(prompt)
	jsonSchema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schema.Name,
		Strict: openai.Bool(true),
		Schema: schema.Definition,
	}
	if schema.Description != "" {
		jsonSchema.Description = openai.String(schema.Description)
	}
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrap(err, true)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices returned: %w", providerName, errorskg.ErrMalformedOutput)
	}
	msg := completion.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%s: model refused: %s: %w", providerName, msg.Refusal, errorskg.ErrMalformedOutput)
	}
	return json.RawMessage(msg.Content), nil
}

func (p *Provider) params(prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:    openai.ChatModel(p.config.Model),
	}
	if p.config.Temperature >= 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.config.MaxTokens)
	}
	return params
}

func wrap(err error, structured bool) error {
	var apiErr *openai.Error
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}
	return llm.WrapError(providerName, status, structured, err)
}
