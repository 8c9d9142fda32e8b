// Package semantic adapts a vector.Store and vector.Embedder to evidence.Retriever.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sweetpotato0/legalrag/evidence"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

// Retriever embeds the query and returns the nearest passages as snippets.
type Retriever struct {
	store    vector.Store
	embedder vector.Embedder
}

var _ evidence.Retriever = (*Retriever)(nil)

// New creates a Retriever.
func New(store vector.Store, embedder vector.Embedder) (*Retriever, error) {
	if store == nil || embedder == nil {
		return nil, fmt.Errorf("vector retriever requires a store and an embedder: %w", errorskg.ErrInvalidInput)
	}
	return &Retriever{store: store, embedder: embedder}, nil
}

// Search returns up to k snippets, best first. Store and embedder failures are
// reported as errorskg.ErrIndexUnavailable.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]evidence.Snippet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, indexError("embed query", err)
	}
	hits, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, indexError("search index", err)
	}

	out := make([]evidence.Snippet, 0, len(hits))
	for _, hit := range hits {
		if hit == nil {
			continue
		}
		out = append(out, evidence.Snippet{
			Text:        hit.Text,
			SourceLabel: hit.Source,
			Locator:     hit.Locator,
		})
	}
	return out, nil
}

func indexError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, errorskg.ErrIndexUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, errorskg.ErrIndexUnavailable)
}
