package tokenizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordTokenizerCounts(t *testing.T) {
	tok := NewWordTokenizer()
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"venda casada", 2},
		{"Art. 39, inciso I", 6},
		{"  preço   diferente?  ", 3},
		{"R$10", 3},
	}
	for _, tc := range cases {
		if got := tok.CountTokens(tc.text); got != tc.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestFitBudget(t *testing.T) {
	tok := NewWordTokenizer()
	blocks := []string{"um dois", "três quatro", "cinco seis"}

	if diff := cmp.Diff(blocks, FitBudget(tok, blocks, "\n", 0)); diff != "" {
		t.Fatalf("zero budget should keep all (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(blocks[:2], FitBudget(tok, blocks, "\n", 5)); diff != "" {
		t.Fatalf("budget 5 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(blocks[:1], FitBudget(tok, blocks, "\n", 1)); diff != "" {
		t.Fatalf("tiny budget keeps first block (-want +got):\n%s", diff)
	}
}
