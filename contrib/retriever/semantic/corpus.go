package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
	"gopkg.in/yaml.v3"
)

// Passage is one pre-chunked statute excerpt in a corpus file.
type Passage struct {
	ID      string `json:"id" yaml:"id"`
	Source  string `json:"source" yaml:"source"`
	Locator string `json:"locator" yaml:"locator"`
	Text    string `json:"text" yaml:"text"`
}

// LoadCorpus reads passages from a JSON or YAML file. The format follows the
// extension; anything other than .json is parsed as YAML.
func LoadCorpus(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var passages []Passage
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &passages); err != nil {
			return nil, fmt.Errorf("parse corpus json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &passages); err != nil {
			return nil, fmt.Errorf("parse corpus yaml: %w", err)
		}
	}

	for i := range passages {
		if strings.TrimSpace(passages[i].Text) == "" {
			return nil, fmt.Errorf("corpus passage %d has no text: %w", i, errorskg.ErrInvalidInput)
		}
		if passages[i].ID == "" {
			passages[i].ID = fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(passages[i].Source, " ", "_")), i)
		}
	}
	return passages, nil
}

// Index embeds passages in batches and upserts them into store.
func Index(ctx context.Context, store vector.Store, embedder vector.Embedder, passages []Passage, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 32
	}
	for start := 0; start < len(passages); start += batchSize {
		end := min(start+batchSize, len(passages))
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}
		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed passages %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d passages: %w", len(vectors), len(batch), errorskg.ErrMalformedOutput)
		}

		embeddings := make([]*vector.Embedding, len(batch))
		for i, p := range batch {
			embeddings[i] = &vector.Embedding{
				ID:      p.ID,
				Vector:  vectors[i],
				Text:    p.Text,
				Source:  p.Source,
				Locator: p.Locator,
			}
		}
		if err := store.Upsert(ctx, embeddings...); err != nil {
			return fmt.Errorf("store passages %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}
