package legal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/legalrag/evidence"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type evidenceRetriever struct {
	retriever   evidence.Retriever
	topK        int
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func newEvidenceRetriever(r evidence.Retriever, cfg *Config, logger *slog.Logger) *evidenceRetriever {
	return &evidenceRetriever{
		retriever:   r,
		topK:        cfg.TopK,
		concurrency: cfg.RetrievalConcurrency,
		metrics:     cfg.metrics,
		logger:      logger,
	}
}

// Retrieve runs every query concurrently and merges the hits in query order, dropping
// snippets whose text was already collected. Failed queries contribute nothing.
func (e *evidenceRetriever) Retrieve(ctx context.Context, queries []string) []evidence.Snippet {
	if e.retriever == nil || len(queries) == 0 {
		return nil
	}

	results := make([][]evidence.Snippet, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			hits, err := e.retriever.Search(gctx, q, e.topK)
			if err != nil {
				e.logger.Warn("evidence search failed", "query", trimForLog(q, 80), "error", err)
				e.metrics.ObserveFallback(StageRetrieve, string(errorskg.Classify(err)))
				return nil
			}
			if len(hits) > e.topK {
				hits = hits[:e.topK]
			}
			for j := range hits {
				hits[j] = hits[j].Normalize()
			}
			results[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var merged []evidence.Snippet
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	merged = evidence.Dedup(merged)
	e.logger.Debug("evidence merged", "queries", len(queries), "snippets", len(merged))
	return merged
}

// searchQueries returns the queries retrieval should run: the rewritten ones when
// present, otherwise the original question.
func searchQueries(st *State) []string {
	if len(st.SearchQueries) > 0 {
		return st.SearchQueries
	}
	if strings.TrimSpace(st.OriginalQuestion) == "" {
		return nil
	}
	return []string{st.OriginalQuestion}
}
