// Package ollama provides an embedder backed by a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

// Embedder implements vector.Embedder using the /api/embeddings endpoint.
type Embedder struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

var _ vector.Embedder = (*Embedder)(nil)

// New creates an Ollama embedder. Empty values fall back to a local
// nomic-embed-text model.
func New(baseURL, model string, dimension int) *Embedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &Embedder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Dimension returns the configured vector size.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("calling Ollama: %v: %w", err, errorskg.ErrIndexUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d: %w", resp.StatusCode, errorskg.ErrIndexUnavailable)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %v: %w", err, errorskg.ErrMalformedOutput)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding: %w", errorskg.ErrMalformedOutput)
	}
	if e.dimension > 0 && len(embedResp.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension %d, want %d: %w", len(embedResp.Embedding), e.dimension, errorskg.ErrMalformedOutput)
	}
	return embedResp.Embedding, nil
}

// EmbedBatch calls Embed sequentially; the endpoint takes one prompt per request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
