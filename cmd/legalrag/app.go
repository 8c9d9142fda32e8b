package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/sweetpotato0/legalrag/config"
	ollamaembedder "github.com/sweetpotato0/legalrag/contrib/embedder/ollama"
	openaiembedder "github.com/sweetpotato0/legalrag/contrib/embedder/openai"
	"github.com/sweetpotato0/legalrag/contrib/provider"
	"github.com/sweetpotato0/legalrag/contrib/retriever/cache"
	"github.com/sweetpotato0/legalrag/contrib/retriever/semantic"
	"github.com/sweetpotato0/legalrag/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/legalrag/contrib/vector/inmemory"
	"github.com/sweetpotato0/legalrag/contrib/vector/pg"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/journal"
	journalmongo "github.com/sweetpotato0/legalrag/journal/mongo"
	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/pkg/metrics"
	"github.com/sweetpotato0/legalrag/rag/legal"
	"github.com/sweetpotato0/legalrag/rag/tokenizer"
	"github.com/sweetpotato0/legalrag/vector"
)

const indexBatchSize = 16

// app holds the wired pipeline and everything that must be released on exit.
type app struct {
	cfg     config.Config
	asker   legal.Asker
	history *journalmongo.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	closers []func(context.Context) error
}

func newApp(ctx context.Context, configPath string) (_ *app, err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		metrics: metrics.New(),
		logger:  logging.WithComponent("cli"),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	model, err := provider.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	retriever, err := a.buildRetriever(ctx, cfg.Retriever)
	if err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}
	tok, err := buildTokenizer(cfg.Pipeline.TokenizerModel)
	if err != nil {
		return nil, err
	}

	pipeline, err := legal.NewPipeline(legal.Clients{Default: model}, retriever,
		legal.WithTopK(cfg.Retriever.TopK),
		legal.WithMaxQueries(cfg.Pipeline.MaxQueries),
		legal.WithRetrievalConcurrency(cfg.Pipeline.RetrievalConcurrency),
		legal.WithEvidenceTokenBudget(cfg.Pipeline.EvidenceTokenBudget, tok),
		legal.WithPromptVersion(cfg.Pipeline.PromptVersion),
		legal.WithMetrics(a.metrics),
	)
	if err != nil {
		return nil, err
	}
	a.asker = pipeline

	if cfg.Journal.URI != "" {
		store, err := journalmongo.New(ctx, journalmongo.Config{
			URI:        cfg.Journal.URI,
			Database:   cfg.Journal.Database,
			Collection: cfg.Journal.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.history = store
		a.asker = journal.NewRecorder(pipeline, store)
	}

	a.logger.Info("legalrag ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"backend", cfg.Retriever.Backend,
		"cache", cfg.Retriever.RedisAddr != "",
		"journal", cfg.Journal.URI != "",
	)
	return a, nil
}

func (a *app) buildRetriever(ctx context.Context, cfg config.RetrieverConfig) (evidence.Retriever, error) {
	embedder := buildEmbedder(cfg)

	var store vector.Store
	switch cfg.Backend {
	case config.BackendPGVector:
		pgStore, err := pg.New(ctx, pg.Config{
			DSN:          cfg.PGDSN,
			Dimension:    embedder.Dimension(),
			TableName:    cfg.PGTable,
			CreateSchema: true,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return pgStore.Close() })
		store = pgStore
	default:
		store = inmemory.New()
	}

	if err := a.indexCorpus(ctx, store, embedder, cfg.CorpusFile); err != nil {
		return nil, err
	}

	sem, err := semantic.New(store, embedder)
	if err != nil {
		return nil, err
	}
	var retriever evidence.Retriever = sem
	if cfg.RedisAddr != "" {
		backend := cache.NewRedisBackend(cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		a.closers = append(a.closers, func(context.Context) error { return backend.Close() })
		if err := backend.Ping(ctx); err != nil {
			a.logger.Warn("retrieval cache unreachable, lookups fall through to the index", "addr", cfg.RedisAddr, "error", err)
		}
		retriever = cache.New(retriever, backend, cfg.CacheTTL)
	}
	return retriever, nil
}

// indexCorpus embeds the corpus file into an empty store. A populated store is
// left untouched so restarts against pgvector do not re-embed.
func (a *app) indexCorpus(ctx context.Context, store vector.Store, embedder vector.Embedder, path string) error {
	if path == "" {
		return nil
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		a.logger.Info("vector store already populated", "documents", count)
		return nil
	}
	passages, err := semantic.LoadCorpus(path)
	if err != nil {
		return err
	}
	if err := semantic.Index(ctx, store, embedder, passages, indexBatchSize); err != nil {
		return err
	}
	a.logger.Info("corpus indexed", "file", path, "passages", len(passages))
	return nil
}

func buildEmbedder(cfg config.RetrieverConfig) vector.Embedder {
	if cfg.Embedder == config.ProviderOpenAI {
		return openaiembedder.New(cfg.EmbeddingKey, cfg.EmbeddingURL, openai.EmbeddingModel(cfg.EmbeddingModel), cfg.Dimension)
	}
	return ollamaembedder.New(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.Dimension)
}

func buildTokenizer(model string) (tokenizer.Tokenizer, error) {
	if model == "" {
		return nil, nil
	}
	tok, err := tiktoken.NewTiktokenTokenizer(model)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	return tok, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
