package evidence

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDedupKeepsFirstPosition(t *testing.T) {
	in := []Snippet{
		{Text: "a", SourceLabel: "CDC", Locator: "1"},
		{Text: "b", SourceLabel: "CDC", Locator: "2"},
		{Text: "a", SourceLabel: "CF", Locator: "9"},
		{Text: "c", SourceLabel: "CF", Locator: "3"},
	}
	want := []Snippet{in[0], in[1], in[3]}
	if diff := cmp.Diff(want, Dedup(in)); diff != "" {
		t.Fatalf("dedup mismatch (-want +got):\n%s", diff)
	}
}

func TestSourcesAndLocators(t *testing.T) {
	in := []Snippet{
		{Text: "a", SourceLabel: "CDC", Locator: "12"},
		{Text: "b", SourceLabel: "CF", Locator: UnknownLocator},
		{Text: "c", SourceLabel: "CDC", Locator: "12"},
		{Text: "d", SourceLabel: "CDC", Locator: "40"},
	}
	if diff := cmp.Diff([]string{"CDC", "CF"}, Sources(in)); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"12"}, Locators(in, 1)); diff != "" {
		t.Fatalf("locators mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"12", "40"}, Locators(in, 5)); diff != "" {
		t.Fatalf("locators mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	got := Snippet{Text: "x"}.Normalize()
	if got.Locator != UnknownLocator || got.SourceLabel == "" {
		t.Fatalf("unexpected normalized snippet %+v", got)
	}
}

func TestStaticSearch(t *testing.T) {
	r := Static{"q": {{Text: "1"}, {Text: "2"}, {Text: "3"}}}
	hits, err := r.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits, _ := r.Search(context.Background(), "missing", 2); len(hits) != 0 {
		t.Fatalf("expected no hits for unknown query")
	}
}
