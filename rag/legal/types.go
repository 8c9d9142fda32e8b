package legal

import "github.com/sweetpotato0/legalrag/evidence"

// Intent is the topical area a question belongs to.
type Intent string

const (
	IntentConsumer       Intent = "consumer"
	IntentConstitutional Intent = "constitutional"
	IntentUnknown        Intent = "unknown"
)

// Confidence is advisory and only surfaces in logs and results.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TriageMethod records which layer decided the triage outcome.
type TriageMethod string

const (
	MethodDeterministic TriageMethod = "deterministic"
	MethodLLM           TriageMethod = "llm"
	MethodFallback      TriageMethod = "fallback"
)

// VerdictResult is the outcome of faithfulness verification.
type VerdictResult string

const (
	Faithful    VerdictResult = "faithful"
	NotFaithful VerdictResult = "not_faithful"
)

// Verdict is produced by the verifier. Reason is always set when Result is NotFaithful.
type Verdict struct {
	Result VerdictResult `json:"result"`
	Reason string        `json:"reason"`
}

// TriageResult is the supervisor decision for one question.
type TriageResult struct {
	Intent             Intent       `json:"intent"`
	NeedsClarification bool         `json:"needs_clarification"`
	Confidence         Confidence   `json:"confidence"`
	Method             TriageMethod `json:"method"`
}

// State is the per-request record threaded through the stage graph.
type State struct {
	RunID              string
	OriginalQuestion   string // never rewritten
	SearchQueries      []string
	Intent             Intent
	NeedsClarification bool
	Confidence         Confidence
	TriageMethod       TriageMethod
	Evidence           []evidence.Snippet
	Answer             string
	Verdict            *Verdict
	Suggestions        []string
	Path               []string
}

// Result is what callers of Pipeline.Run receive.
type Result struct {
	RunID              string             `json:"run_id"`
	Question           string             `json:"question"`
	Answer             string             `json:"answer"`
	Evidence           []evidence.Snippet `json:"evidence"`
	Verdict            *Verdict           `json:"verdict,omitempty"`
	Intent             Intent             `json:"intent"`
	NeedsClarification bool               `json:"needs_clarification"`
	Confidence         Confidence         `json:"confidence"`
	TriageMethod       TriageMethod       `json:"triage_method"`
	SearchQueries      []string           `json:"search_queries,omitempty"`
	Suggestions        []string           `json:"suggestions,omitempty"`
	Path               []string           `json:"path"`
}

// Outcome names the terminal path a run took.
func (r *Result) Outcome() string {
	switch {
	case r.NeedsClarification:
		return "clarification"
	case r.Verdict != nil && r.Verdict.Result == Faithful:
		return "answered"
	default:
		return "remediated"
	}
}
