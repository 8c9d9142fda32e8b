package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/vector"
)

func TestStoreSearch(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.Upsert(ctx,
		&vector.Embedding{ID: "cdc-39", Text: "venda casada", Source: "CDC", Locator: "Art. 39", Vector: []float32{1, 0, 0}},
		&vector.Embedding{ID: "cdc-37", Text: "publicidade enganosa", Source: "CDC", Locator: "Art. 37", Vector: []float32{0, 1, 0}},
		&vector.Embedding{ID: "cf-5", Text: "igualdade", Source: "CF", Locator: "Art. 5", Vector: []float32{0, 0, 1}},
	)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	results, err := store.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != "cdc-39" || results[0].Locator != "Art. 39" || results[0].Source != "CDC" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("results not ordered by score: %v >= %v", results[1].Score, results[0].Score)
	}

	n, _ := store.Count(ctx)
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestStoreTieBreakAndDimension(t *testing.T) {
	store := New()
	ctx := context.Background()
	_ = store.Upsert(ctx,
		&vector.Embedding{ID: "b", Vector: []float32{1, 0}},
		&vector.Embedding{ID: "a", Vector: []float32{1, 0}},
		&vector.Embedding{ID: "other-dim", Vector: []float32{1, 0, 0}},
	)
	for i := 0; i < 3; i++ {
		results, err := store.Search(ctx, []float32{1, 0}, 5)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 2 || results[0].ID != "a" || results[1].ID != "b" {
			t.Fatalf("unexpected order %v, %v", results[0].ID, results[1].ID)
		}
	}
}

func TestStoreUpsertReplacesAndCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	emb := &vector.Embedding{ID: "x", Text: "old", Vector: []float32{1, 0}}
	_ = store.Upsert(ctx, emb)
	emb.Vector[0] = 0
	_ = store.Upsert(ctx, &vector.Embedding{ID: "x", Text: "new", Vector: []float32{1, 0}})

	results, _ := store.Search(ctx, []float32{1, 0}, 1)
	if len(results) != 1 || results[0].Text != "new" {
		t.Fatalf("upsert did not replace: %+v", results)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}
}

func TestStoreValidation(t *testing.T) {
	store := New()
	ctx := context.Background()
	cases := []*vector.Embedding{nil, {ID: "", Vector: []float32{1}}, {ID: "x"}}
	for _, emb := range cases {
		if err := store.Upsert(ctx, emb); !errors.Is(err, errorskg.ErrInvalidInput) {
			t.Errorf("Upsert(%+v) = %v, want invalid input", emb, err)
		}
	}
	if _, err := store.Search(ctx, nil, 1); !errors.Is(err, errorskg.ErrInvalidInput) {
		t.Errorf("expected invalid input for empty query")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Upsert(ctx, &vector.Embedding{ID: string(rune('a' + i)), Vector: []float32{float32(i), 1}})
			_, _ = store.Search(ctx, []float32{1, 1}, 3)
		}(i)
	}
	wg.Wait()
	if n, _ := store.Count(ctx); n != 8 {
		t.Fatalf("Count = %d, want 8", n)
	}
}
