// Package mcp exposes the legal pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/journal"
	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

const (
	ToolAsk        = "ask_legal_question"
	ToolRecentRuns = "recent_runs"

	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// History lists journaled runs, newest first.
type History interface {
	Recent(ctx context.Context, outcome string, limit int64) ([]journal.Entry, error)
}

// Option configures the server.
type Option func(*serverConfig)

type serverConfig struct {
	implementation sdkmcp.Implementation
	history        History
	logger         *slog.Logger
}

// WithImplementation sets the name and version advertised to clients.
func WithImplementation(name, version string) Option {
	return func(cfg *serverConfig) {
		if name != "" {
			cfg.implementation.Name = name
		}
		if version != "" {
			cfg.implementation.Version = version
		}
	}
}

// WithHistory enables the recent_runs tool.
func WithHistory(h History) Option {
	return func(cfg *serverConfig) {
		cfg.history = h
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// AskInput is the ask_legal_question argument.
type AskInput struct {
	Question string `json:"question" jsonschema:"The legal question in natural language, usually Portuguese"`
}

// AskOutput is the structured ask_legal_question result.
type AskOutput struct {
	RunID       string   `json:"run_id"`
	Answer      string   `json:"answer"`
	Outcome     string   `json:"outcome" jsonschema:"answered, remediated or clarification"`
	Intent      string   `json:"intent"`
	Sources     []string `json:"sources,omitempty"`
	Locators    []string `json:"locators,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// RecentInput is the recent_runs argument.
type RecentInput struct {
	Outcome string `json:"outcome,omitempty" jsonschema:"Optional outcome filter: answered, remediated or clarification"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum runs to return, defaults to 20"`
}

// RunSummary is one journaled run.
type RunSummary struct {
	RunID      string `json:"run_id"`
	Question   string `json:"question"`
	Outcome    string `json:"outcome"`
	Intent     string `json:"intent"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// RecentOutput is the structured recent_runs result.
type RecentOutput struct {
	Runs []RunSummary `json:"runs"`
}

// NewServer builds an MCP server around asker.
func NewServer(asker legal.Asker, opts ...Option) *sdkmcp.Server {
	cfg := serverConfig{
		implementation: sdkmcp.Implementation{Name: "legalrag", Title: "Brazilian legal QA", Version: "dev"},
		logger:         logging.WithComponent("mcp"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	impl := cfg.implementation
	server := sdkmcp.NewServer(&impl, &sdkmcp.ServerOptions{
		Instructions: "Answers questions about Brazilian consumer and constitutional law using retrieved statute excerpts.",
		Logger:       cfg.logger,
	})

	addAskTool(server, asker, cfg.logger)
	if cfg.history != nil {
		addRecentTool(server, cfg.history)
	}
	return server
}

func addAskTool(server *sdkmcp.Server, asker legal.Asker, logger *slog.Logger) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolAsk,
		Description: "Answer a Brazilian legal question grounded in statute excerpts, with a verification step and a legal disclaimer",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in AskInput) (*sdkmcp.CallToolResult, AskOutput, error) {
		question := strings.TrimSpace(in.Question)
		if question == "" {
			return nil, AskOutput{}, fmt.Errorf("question is required")
		}
		res, err := asker.Run(ctx, question)
		if err != nil {
			logger.Warn("ask tool failed", "error", err)
			return nil, AskOutput{}, fmt.Errorf("answer question: %w", err)
		}
		return nil, toAskOutput(res), nil
	})
}

func toAskOutput(res *legal.Result) AskOutput {
	return AskOutput{
		RunID:       res.RunID,
		Answer:      res.Answer,
		Outcome:     res.Outcome(),
		Intent:      string(res.Intent),
		Sources:     evidence.Sources(res.Evidence),
		Locators:    evidence.Locators(res.Evidence, 0),
		Suggestions: res.Suggestions,
	}
}

func addRecentTool(server *sdkmcp.Server, history History) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolRecentRuns,
		Description: "List recently answered legal questions, newest first",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in RecentInput) (*sdkmcp.CallToolResult, RecentOutput, error) {
		limit := in.Limit
		switch {
		case limit <= 0:
			limit = defaultRecentLimit
		case limit > maxRecentLimit:
			limit = maxRecentLimit
		}
		entries, err := history.Recent(ctx, strings.TrimSpace(in.Outcome), int64(limit))
		if err != nil {
			return nil, RecentOutput{}, fmt.Errorf("list runs: %w", err)
		}
		out := RecentOutput{Runs: make([]RunSummary, 0, len(entries))}
		for _, e := range entries {
			out.Runs = append(out.Runs, RunSummary{
				RunID:      e.RunID,
				Question:   e.Question,
				Outcome:    e.Outcome,
				Intent:     e.Intent,
				DurationMS: e.Duration.Milliseconds(),
				CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return nil, out, nil
	})
}

// Handler serves server over the streamable HTTP transport at any path.
func Handler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}
