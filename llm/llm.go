// Package llm defines the text generation capability consumed by the legal pipeline
// together with small decorators shared by every provider adapter.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

// LanguageModel generates text from a prompt. Implementations must be safe for
// concurrent use.
type LanguageModel interface {
	// Generate returns free-form text for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStructured returns a JSON document matching schema. Backends that cannot
	// constrain their output return errorskg.ErrUnsupportedOutputMode.
	GenerateStructured(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error)
}

// Schema describes the JSON object expected from GenerateStructured.
type Schema struct {
	Name        string
	Description string
	// Definition is a JSON Schema object.
	Definition map[string]any
}

// Properties returns the "properties" map of the definition, or nil.
func (s Schema) Properties() map[string]any {
	props, _ := s.Definition["properties"].(map[string]any)
	return props
}

// Required returns the "required" list of the definition.
func (s Schema) Required() []string {
	switch v := s.Definition["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Decode calls GenerateStructured and unmarshals the result into T.
func Decode[T any](ctx context.Context, model LanguageModel, prompt string, schema Schema) (T, error) {
	var out T
	raw, err := model.GenerateStructured(ctx, prompt, schema)
	if err != nil {
		return out, err
	}
	clean := StripFences(string(raw))
	if clean == "" {
		return out, fmt.Errorf("%s: empty output: %w", schema.Name, errorskg.ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return out, fmt.Errorf("%s: decode JSON: %v: %w", schema.Name, err, errorskg.ErrMalformedOutput)
	}
	return out, nil
}

// StripFences removes a surrounding markdown code fence from model output.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
