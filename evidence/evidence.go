// Package evidence defines retrieved statute excerpts and the retrieval capability.
package evidence

import (
	"context"
	"strings"
)

// UnknownLocator is used when a snippet carries no page or article reference.
const UnknownLocator = "N/A"

// Snippet is one retrieved excerpt. Two snippets are the same evidence when their
// Text is identical.
type Snippet struct {
	Text        string `json:"text"`
	SourceLabel string `json:"source_label"`
	Locator     string `json:"locator"`
}

// Retriever returns the k snippets most similar to query, best first.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Snippet, error)
}

// Normalize fills empty labels and locators.
func (s Snippet) Normalize() Snippet {
	if strings.TrimSpace(s.Locator) == "" {
		s.Locator = UnknownLocator
	}
	if strings.TrimSpace(s.SourceLabel) == "" {
		s.SourceLabel = "unknown source"
	}
	return s
}

// Dedup drops snippets whose Text was already seen, keeping first positions.
func Dedup(snippets []Snippet) []Snippet {
	seen := make(map[string]struct{}, len(snippets))
	out := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		if _, ok := seen[s.Text]; ok {
			continue
		}
		seen[s.Text] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Sources returns the distinct source labels in order of first appearance.
func Sources(snippets []Snippet) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range snippets {
		if _, ok := seen[s.SourceLabel]; ok {
			continue
		}
		seen[s.SourceLabel] = struct{}{}
		out = append(out, s.SourceLabel)
	}
	return out
}

// Locators returns up to limit distinct locators in order, skipping UnknownLocator.
func Locators(snippets []Snippet, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range snippets {
		if limit > 0 && len(out) >= limit {
			break
		}
		loc := strings.TrimSpace(s.Locator)
		if loc == "" || loc == UnknownLocator {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
}

// Static is a fixed in-memory Retriever keyed by exact query, mainly for tests and demos.
type Static map[string][]Snippet

// Search returns at most k snippets stored for query.
func (s Static) Search(_ context.Context, query string, k int) ([]Snippet, error) {
	hits := s[query]
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Snippet, len(hits))
	copy(out, hits)
	return out, nil
}
