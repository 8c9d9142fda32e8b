package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

func TestFromResult(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	res := &legal.Result{
		RunID:    "run-1",
		Question: "O que é venda casada?",
		Answer:   "É vedada pelo art. 39.",
		Evidence: []evidence.Snippet{
			{Text: "a", SourceLabel: "CDC", Locator: "Art. 39"},
			{Text: "b", SourceLabel: "CDC", Locator: evidence.UnknownLocator},
			{Text: "c", SourceLabel: "CF", Locator: "Art. 5"},
		},
		Verdict:       &legal.Verdict{Result: legal.Faithful},
		Intent:        legal.IntentConsumer,
		Confidence:    legal.ConfidenceHigh,
		TriageMethod:  legal.MethodDeterministic,
		SearchQueries: []string{"venda casada"},
		Path:          []string{"triage", "triage_gate", "rewrite"},
	}

	got := FromResult(res, 1500*time.Millisecond, now)
	want := Entry{
		RunID:         "run-1",
		Question:      "O que é venda casada?",
		Answer:        "É vedada pelo art. 39.",
		Outcome:       "answered",
		Intent:        "consumer",
		Confidence:    "high",
		TriageMethod:  "deterministic",
		Verdict:       "faithful",
		SearchQueries: []string{"venda casada"},
		Sources:       []string{"CDC", "CF"},
		Locators:      []string{"Art. 39", "Art. 5"},
		Path:          []string{"triage", "triage_gate", "rewrite"},
		Duration:      1500 * time.Millisecond,
		CreatedAt:     now.UTC(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestFromResultClarification(t *testing.T) {
	res := &legal.Result{RunID: "run-2", NeedsClarification: true, Intent: legal.IntentUnknown}
	got := FromResult(res, 0, time.Unix(0, 0))
	if got.Outcome != "clarification" || got.Verdict != "" || got.Sources != nil {
		t.Fatalf("unexpected entry %+v", got)
	}
	if err := (Nop{}).Record(context.Background(), got); err != nil {
		t.Fatalf("Nop.Record: %v", err)
	}
}

type fixedAsker struct {
	res *legal.Result
	err error
}

func (a fixedAsker) Run(ctx context.Context, question string) (*legal.Result, error) {
	return a.res, a.err
}

type memoryJournal struct {
	entries []Entry
	err     error
}

func (m *memoryJournal) Record(ctx context.Context, entry Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(step)
		return now
	}
}

func TestRecorderWritesEntry(t *testing.T) {
	res := &legal.Result{RunID: "run-3", Question: "q", Verdict: &legal.Verdict{Result: legal.NotFaithful, Reason: "sem base"}}
	j := &memoryJournal{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecorder(fixedAsker{res: res}, j, WithClock(steppingClock(start, 2*time.Second)), WithRecorderLogger(logging.Discard()))

	got, err := rec.Run(context.Background(), "q")
	if err != nil || got != res {
		t.Fatalf("Run = %v, %v", got, err)
	}
	if len(j.entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(j.entries))
	}
	entry := j.entries[0]
	if entry.Outcome != "remediated" || entry.VerdictReason != "sem base" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Duration != 2*time.Second || !entry.CreatedAt.Equal(start.Add(2*time.Second)) {
		t.Fatalf("unexpected timing %s at %s", entry.Duration, entry.CreatedAt)
	}
}

func TestRecorderIgnoresJournalFailure(t *testing.T) {
	res := &legal.Result{RunID: "run-4"}
	rec := NewRecorder(fixedAsker{res: res}, &memoryJournal{err: errors.New("mongo down")}, WithRecorderLogger(logging.Discard()))
	if got, err := rec.Run(context.Background(), "q"); err != nil || got != res {
		t.Fatalf("Run = %v, %v", got, err)
	}
}

func TestRecorderSkipsFailedRuns(t *testing.T) {
	j := &memoryJournal{}
	rec := NewRecorder(fixedAsker{err: context.Canceled}, j, WithRecorderLogger(logging.Discard()))
	if _, err := rec.Run(context.Background(), "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(j.entries) != 0 {
		t.Fatalf("failed run must not be journaled")
	}
}
