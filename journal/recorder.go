package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/sweetpotato0/legalrag/pkg/logging"
	"github.com/sweetpotato0/legalrag/rag/legal"
)

// Recorder journals every successful run of the wrapped asker. A journal write
// failure is logged and never changes the answer returned to the caller.
type Recorder struct {
	next    legal.Asker
	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

var _ legal.Asker = (*Recorder)(nil)

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger overrides the logger.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder wraps next. A nil journal behaves like Nop.
func NewRecorder(next legal.Asker, j Journal, opts ...RecorderOption) *Recorder {
	if j == nil {
		j = Nop{}
	}
	r := &Recorder{
		next:    next,
		journal: j,
		logger:  logging.WithComponent("journal"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements legal.Asker.
func (r *Recorder) Run(ctx context.Context, question string) (*legal.Result, error) {
	start := r.now()
	res, err := r.next.Run(ctx, question)
	if err != nil {
		return nil, err
	}

	end := r.now()
	entry := FromResult(res, end.Sub(start), end)
	if err := r.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("journal write failed", "run_id", res.RunID, "error", err)
	}
	return res, nil
}
