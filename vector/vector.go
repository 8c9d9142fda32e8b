// Package vector defines the similarity index consumed by the vector retriever.
package vector

import (
	"context"
	"math"
)

// Embedding is one indexed passage of a legal document together with its vector.
type Embedding struct {
	ID     string
	Vector []float32
	Text   string
	// Source is the document label, e.g. "CDC".
	Source string
	// Locator points inside the document, e.g. "Art. 39". Empty when unknown.
	Locator string
	// Score is the similarity to the query; only set on search results.
	Score float32
}

// Store is a similarity index over embeddings.
type Store interface {
	// Upsert inserts or replaces embeddings by ID.
	Upsert(ctx context.Context, embeddings ...*Embedding) error

	// Search returns up to topK embeddings ordered by decreasing similarity.
	Search(ctx context.Context, queryVector []float32, topK int) ([]*Embedding, error)

	// Count returns the number of embeddings
	Count(ctx context.Context) (int, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when the
// lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize scales the vector to unit length (L2 norm) in place.
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
