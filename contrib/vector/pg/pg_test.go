package pg

import (
	"context"
	"errors"
	"os"
	"testing"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

func TestVectorLiteral(t *testing.T) {
	got := vectorLiteral([]float32{0.5, -1, 0.25})
	if got != "[0.5,-1,0.25]" {
		t.Fatalf("vectorLiteral = %q", got)
	}
	if vectorLiteral(nil) != "[]" {
		t.Fatalf("empty vector literal mismatch")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{DSN: "postgres://x", Dimension: 3, TableName: "chunks; DROP TABLE x"}); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid table name error, got %v", err)
	}
	if _, err := New(ctx, Config{DSN: "postgres://x", Dimension: 0}); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Fatalf("expected invalid dimension error, got %v", err)
	}
}

// Requires a PostgreSQL with pgvector reachable through LEGALRAG_TEST_PG_DSN.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("LEGALRAG_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LEGALRAG_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := New(ctx, Config{DSN: dsn, Dimension: 3, TableName: "legalrag_test_chunks", CreateSchema: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	err = store.Upsert(ctx,
		&vector.Embedding{ID: "cdc-39", Source: "CDC", Locator: "Art. 39", Text: "venda casada", Vector: []float32{1, 0, 0}},
		&vector.Embedding{ID: "cf-5", Source: "CF", Locator: "Art. 5", Text: "igualdade", Vector: []float32{0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := store.Search(ctx, []float32{1, 0.1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "cdc-39" || results[0].Locator != "Art. 39" {
		t.Fatalf("unexpected results %+v", results)
	}
}
