package legal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/graph"
	"github.com/sweetpotato0/legalrag/llm"
	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/pkg/metrics"
)

const legalStateKey = "__legal_rag_state"

// Stage names, also used as graph node names.
const (
	StageTriage        = "triage"
	StageTriageGate    = "triage_gate"
	StageClarification = "clarification"
	StageRewrite       = "rewrite"
	StageRetrieve      = "retrieve"
	StageAnswer        = "answer"
	StageVerify        = "verify"
	StageVerifyGate    = "verify_gate"
	StageRemediate     = "remediate"
	StageSafety        = "safety"
	StageEnd           = "end"
)

// Clients groups the language models used by the different stages. Unset roles use Default.
type Clients struct {
	Default    llm.LanguageModel
	Triage     llm.LanguageModel
	Rewriter   llm.LanguageModel
	Answerer   llm.LanguageModel
	Verifier   llm.LanguageModel
	Remediator llm.LanguageModel
}

// Pipeline answers legal questions through a fixed stage graph:
//
//	triage -> triage_gate -> clarification -> safety
//	                      -> rewrite -> retrieve -> answer -> verify -> verify_gate -> safety
//	                                                                               -> remediate -> safety
//
// Routing depends only on NeedsClarification and the verdict. Every stage turns
// capability failures into its own default, so a run only fails on cancellation or an
// engine error. A Pipeline is safe for concurrent use; each Run owns its state.
type Pipeline struct {
	cfg        *Config
	supervisor *supervisor
	rewriter   *rewriter
	retrieval  *evidenceRetriever
	answerer   *answerer
	verifier   *verifier
	remediator *remediator
	graph      *graph.Graph
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Asker answers a single question. *Pipeline is the canonical implementation.
type Asker interface {
	Run(ctx context.Context, question string) (*Result, error)
}

var _ Asker = (*Pipeline)(nil)

// runState is the per-request record stored in the graph state.
type runState struct {
	State
	logger *slog.Logger
}

// NewPipeline wires the stages around the given capabilities.
func NewPipeline(clients Clients, retriever evidence.Retriever, opts ...Option) (*Pipeline, error) {
	cfg := applyOptions(nil, opts)

	roles := map[string]llm.LanguageModel{
		StageTriage:    pickClient(clients.Triage, clients.Default),
		StageRewrite:   pickClient(clients.Rewriter, clients.Default),
		StageAnswer:    pickClient(clients.Answerer, clients.Default),
		StageVerify:    pickClient(clients.Verifier, clients.Default),
		StageRemediate: pickClient(clients.Remediator, clients.Default),
	}
	for _, stage := range []string{StageTriage, StageRewrite, StageAnswer, StageVerify, StageRemediate} {
		if roles[stage] == nil {
			return nil, fmt.Errorf("%s language model is required: %w", stage, errorskg.ErrInvalidInput)
		}
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required: %w", errorskg.ErrInvalidInput)
	}
	for _, name := range []string{PromptTriage, PromptRewrite, PromptAnswer, PromptVerify, PromptRemediate} {
		if _, err := cfg.prompts.Get(name, cfg.PromptVersion); err != nil {
			return nil, fmt.Errorf("prompt set %s: %w", cfg.PromptVersion, err)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.WithComponent("legal_pipeline")
	}
	logger = logger.With("pipeline", cfg.Name)

	p := &Pipeline{
		cfg:        cfg,
		supervisor: newSupervisor(roles[StageTriage], cfg),
		rewriter:   newRewriter(roles[StageRewrite], cfg),
		retrieval:  newEvidenceRetriever(retriever, cfg, logger),
		answerer:   newAnswerer(roles[StageAnswer], cfg),
		verifier:   newVerifier(roles[StageVerify], cfg),
		remediator: newRemediator(roles[StageRemediate], cfg),
		metrics:    cfg.metrics,
		logger:     logger,
	}

	g := graph.NewBuilder().
		AddNode(StageTriage, graph.NodeTypeStart, p.triageNode).
		AddConditionNode(StageTriageGate, p.triageGate, map[string]string{
			"clarify": StageClarification,
			"proceed": StageRewrite,
		}).
		AddNode(StageClarification, graph.NodeTypeStage, p.clarificationNode).
		AddNode(StageRewrite, graph.NodeTypeStage, p.rewriteNode).
		AddNode(StageRetrieve, graph.NodeTypeStage, p.retrieveNode).
		AddNode(StageAnswer, graph.NodeTypeStage, p.answerNode).
		AddNode(StageVerify, graph.NodeTypeStage, p.verifyNode).
		AddConditionNode(StageVerifyGate, p.verifyGate, map[string]string{
			string(Faithful):    StageSafety,
			string(NotFaithful): StageRemediate,
		}).
		AddNode(StageRemediate, graph.NodeTypeStage, p.remediateNode).
		AddNode(StageSafety, graph.NodeTypeStage, p.safetyNode).
		AddNode(StageEnd, graph.NodeTypeEnd, nil).
		AddEdge(StageTriage, StageTriageGate).
		AddEdge(StageClarification, StageSafety).
		AddEdge(StageRewrite, StageRetrieve).
		AddEdge(StageRetrieve, StageAnswer).
		AddEdge(StageAnswer, StageVerify).
		AddEdge(StageVerify, StageVerifyGate).
		AddEdge(StageRemediate, StageSafety).
		AddEdge(StageSafety, StageEnd).
		SetStart(StageTriage).
		SetEnd(StageEnd).
		SetMaxVisits(1).
		Build()
	if p.metrics != nil {
		g.SetObserver(func(node string, elapsed time.Duration, _ error) {
			p.metrics.ObserveStage(node, elapsed)
		})
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage graph: %w", err)
	}
	p.graph = g

	p.logger.Info("legal pipeline initialised",
		"top_k", cfg.TopK,
		"max_queries", cfg.MaxQueries,
		"prompt_version", cfg.PromptVersion,
		"evidence_token_budget", cfg.EvidenceTokenBudget,
	)
	return p, nil
}

func pickClient(primary, fallback llm.LanguageModel) llm.LanguageModel {
	if primary != nil {
		return primary
	}
	return fallback
}

// Run answers one question. The returned error is non-nil only when ctx is done or the
// stage graph itself fails; every other outcome is a Result with a final answer.
func (p *Pipeline) Run(ctx context.Context, question string) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	st := &runState{
		State: State{
			RunID:            runID,
			OriginalQuestion: question,
			Intent:           IntentUnknown,
		},
		logger: logger,
	}
	logger.Info("pipeline run started", "question", trimForLog(question, 120))

	finalState, err := p.graph.Execute(ctx, graph.State{legalStateKey: st})
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "cancelled"
		}
		p.metrics.ObserveRun(outcome, 0)
		logger.Warn("pipeline run aborted", "error", err, "path", graph.Visited(finalState))
		return nil, err
	}
	st.Path = graph.Visited(finalState)

	res := st.result()
	p.metrics.ObserveRun(res.Outcome(), len(res.Evidence))
	logger.Info("pipeline run completed",
		"outcome", res.Outcome(),
		"intent", res.Intent,
		"confidence", res.Confidence,
		"evidence_count", len(res.Evidence),
		"path", strings.Join(res.Path, ">"),
	)
	return res, nil
}

func (p *Pipeline) triageNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	res, err := p.supervisor.Triage(ctx, st.OriginalQuestion)
	if err != nil {
		p.fallback(st, StageTriage, err)
	}
	st.Intent = res.Intent
	st.NeedsClarification = res.NeedsClarification
	st.Confidence = res.Confidence
	st.TriageMethod = res.Method
	p.metrics.ObserveTriage(string(res.Method), res.NeedsClarification)
	st.logger.Info("triage completed",
		"stage", StageTriage,
		"intent", res.Intent,
		"needs_clarification", res.NeedsClarification,
		"confidence", res.Confidence,
		"method", res.Method,
	)
	return state, nil
}

func (p *Pipeline) triageGate(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if st.NeedsClarification {
		return "clarify", nil
	}
	return "proceed", nil
}

func (p *Pipeline) clarificationNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	st.Answer = p.cfg.ClarificationMessage
	st.logger.Info("clarification requested", "stage", StageClarification)
	return state, nil
}

func (p *Pipeline) rewriteNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	queries, err := p.rewriter.Expand(ctx, st.OriginalQuestion)
	if err != nil {
		p.fallback(st, StageRewrite, err)
		queries = []string{st.OriginalQuestion}
	}
	st.SearchQueries = queries
	st.logger.Debug("queries rewritten", "stage", StageRewrite, "count", len(queries))
	return state, nil
}

func (p *Pipeline) retrieveNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	st.Evidence = p.retrieval.Retrieve(ctx, searchQueries(&st.State))
	st.logger.Info("evidence retrieved", "stage", StageRetrieve, "evidence_count", len(st.Evidence))
	return state, nil
}

func (p *Pipeline) answerNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	answer, err := p.answerer.Answer(ctx, st.OriginalQuestion, st.Evidence)
	if err != nil {
		p.fallback(st, StageAnswer, err)
		answer = NoInformationAnswer
	}
	st.Answer = answer
	st.logger.Info("answer generated", "stage", StageAnswer, "answer_length", len(answer))
	return state, nil
}

func (p *Pipeline) verifyNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	verdict, err := p.verifier.Verify(ctx, st.Answer, st.Evidence)
	if err != nil {
		p.fallback(st, StageVerify, err)
	}
	st.Verdict = &verdict
	p.metrics.ObserveVerdict(string(verdict.Result))
	st.logger.Info("answer verified", "stage", StageVerify, "verdict", verdict.Result, "reason", verdict.Reason)
	return state, nil
}

func (p *Pipeline) verifyGate(ctx context.Context, state graph.State) (string, error) {
	st, err := getState(state)
	if err != nil {
		return "", err
	}
	if st.Verdict != nil && st.Verdict.Result == Faithful {
		return string(Faithful), nil
	}
	return string(NotFaithful), nil
}

func (p *Pipeline) remediateNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	reason := genericUnfaithfulReason
	if st.Verdict != nil && st.Verdict.Reason != "" {
		reason = st.Verdict.Reason
	}
	suggestions, err := p.remediator.Suggest(ctx, st.OriginalQuestion, st.Evidence, reason, st.Intent)
	if err != nil {
		p.fallback(st, StageRemediate, err)
	}
	st.Suggestions = suggestions
	st.Answer = remediationMessage(reason, st.Answer, suggestions)
	st.logger.Info("remediation suggested", "stage", StageRemediate, "suggestions", len(suggestions))
	return state, nil
}

func (p *Pipeline) safetyNode(ctx context.Context, state graph.State) (graph.State, error) {
	st, err := getState(state)
	if err != nil {
		return state, err
	}
	st.Answer = ApplyDisclaimer(st.Answer, p.cfg.Disclaimer)
	return state, nil
}

func (p *Pipeline) fallback(st *runState, stage string, err error) {
	kind := errorskg.Classify(err)
	p.metrics.ObserveFallback(stage, string(kind))
	st.logger.Warn("stage degraded to default", "stage", stage, "kind", kind, "error", err)
}

func (st *runState) result() *Result {
	return &Result{
		RunID:              st.RunID,
		Question:           st.OriginalQuestion,
		Answer:             st.Answer,
		Evidence:           st.Evidence,
		Verdict:            st.Verdict,
		Intent:             st.Intent,
		NeedsClarification: st.NeedsClarification,
		Confidence:         st.Confidence,
		TriageMethod:       st.TriageMethod,
		SearchQueries:      st.SearchQueries,
		Suggestions:        st.Suggestions,
		Path:               st.Path,
	}
}

func getState(state graph.State) (*runState, error) {
	raw, ok := state[legalStateKey]
	if !ok {
		return nil, fmt.Errorf("legal rag state missing in graph")
	}
	st, ok := raw.(*runState)
	if !ok {
		return nil, fmt.Errorf("invalid legal rag state type")
	}
	return st, nil
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
