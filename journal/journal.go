// Package journal records completed pipeline runs for later audit.
package journal

import (
	"context"
	"time"

	"github.com/sweetpotato0/legalrag/evidence"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

// Entry is the persisted form of one run.
type Entry struct {
	RunID         string
	Question      string
	Answer        string
	Outcome       string
	Intent        string
	Confidence    string
	TriageMethod  string
	Verdict       string
	VerdictReason string
	SearchQueries []string
	Sources       []string
	Locators      []string
	Path          []string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Journal stores run entries.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
}

// FromResult builds an entry from a pipeline result.
func FromResult(res *legal.Result, duration time.Duration, now time.Time) Entry {
	entry := Entry{
		RunID:         res.RunID,
		Question:      res.Question,
		Answer:        res.Answer,
		Outcome:       res.Outcome(),
		Intent:        string(res.Intent),
		Confidence:    string(res.Confidence),
		TriageMethod:  string(res.TriageMethod),
		SearchQueries: res.SearchQueries,
		Sources:       evidence.Sources(res.Evidence),
		Locators:      evidence.Locators(res.Evidence, 0),
		Path:          res.Path,
		Duration:      duration,
		CreatedAt:     now.UTC(),
	}
	if res.Verdict != nil {
		entry.Verdict = string(res.Verdict.Result)
		entry.VerdictReason = res.Verdict.Reason
	}
	return entry
}

// Nop discards entries.
type Nop struct{}

// Record implements Journal.
func (Nop) Record(context.Context, Entry) error { return nil }
