package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

// Store implements vector.Store with a brute-force cosine scan.
type Store struct {
	mu         sync.RWMutex
	embeddings map[string]*vector.Embedding
}

var _ vector.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{embeddings: make(map[string]*vector.Embedding)}
}

// Upsert stores copies of the embeddings keyed by ID.
func (s *Store) Upsert(ctx context.Context, embeddings ...*vector.Embedding) error {
	for _, emb := range embeddings {
		if emb == nil {
			return fmt.Errorf("embedding cannot be nil: %w", errorskg.ErrInvalidInput)
		}
		if emb.ID == "" {
			return fmt.Errorf("embedding ID cannot be empty: %w", errorskg.ErrInvalidInput)
		}
		if len(emb.Vector) == 0 {
			return fmt.Errorf("embedding %s has no vector: %w", emb.ID, errorskg.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, emb := range embeddings {
		cp := *emb
		cp.Vector = append([]float32(nil), emb.Vector...)
		cp.Score = 0
		s.embeddings[emb.ID] = &cp
	}
	return nil
}

// Search ranks every stored embedding of matching dimension. Ties are broken by ID so
// results are stable across calls.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty: %w", errorskg.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	results := make([]*vector.Embedding, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		hit := *emb
		hit.Score = vector.CosineSimilarity(queryVector, emb.Vector)
		results = append(results, &hit)
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the number of embeddings
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}
