package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
	"golang.org/x/time/rate"
)

// WithTimeout bounds every call to model by d. Deadline overruns are reported as
// errorskg.ErrModelTimeout. A non-positive d returns model unchanged.
func WithTimeout(model LanguageModel, d time.Duration) LanguageModel {
	if d <= 0 || model == nil {
		return model
	}
	return &timeoutModel{next: model, timeout: d}
}

type timeoutModel struct {
	next    LanguageModel
	timeout time.Duration
}

func (m *timeoutModel) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	out, err := m.next.Generate(ctx, prompt)
	return out, m.wrap(ctx, err)
}

func (m *timeoutModel) GenerateStructured(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	out, err := m.next.GenerateStructured(ctx, prompt, schema)
	return out, m.wrap(ctx, err)
}

func (m *timeoutModel) wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, errorskg.ErrModelTimeout) {
		return fmt.Errorf("after %s: %v: %w", m.timeout, err, errorskg.ErrModelTimeout)
	}
	return err
}

// WithRateLimit shares limiter across all calls to model. Waiting honours ctx.
func WithRateLimit(model LanguageModel, limiter *rate.Limiter) LanguageModel {
	if limiter == nil || model == nil {
		return model
	}
	return &limitedModel{next: model, limiter: limiter}
}

// NewLimiter returns a limiter allowing perSecond calls with the given burst.
// A non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type limitedModel struct {
	next    LanguageModel
	limiter *rate.Limiter
}

func (m *limitedModel) Generate(ctx context.Context, prompt string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return m.next.Generate(ctx, prompt)
}

func (m *limitedModel) GenerateStructured(ctx context.Context, prompt string, schema Schema) (json.RawMessage, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.next.GenerateStructured(ctx, prompt, schema)
}

// wait blocks for a token. Running out of deadline while queued counts as a model timeout,
// including the early refusal when the wait would outlast the deadline.
func (m *limitedModel) wait(ctx context.Context) error {
	err := m.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("rate limit: %w", err)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return fmt.Errorf("rate limit: %v: %w", err, errorskg.ErrModelTimeout)
	}
	return fmt.Errorf("rate limit: %w", err)
}
