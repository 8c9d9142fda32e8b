package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"wrapped unavailable", fmt.Errorf("ollama: %w", ErrModelUnavailable), KindCapabilityUnavailable},
		{"index", fmt.Errorf("pg: %w", ErrIndexUnavailable), KindCapabilityUnavailable},
		{"timeout sentinel", fmt.Errorf("call: %w", ErrModelTimeout), KindCapabilityTimeout},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindCapabilityTimeout},
		{"cancelled", context.Canceled, KindCancelled},
		{"unsupported output", ErrUnsupportedOutputMode, KindMalformedOutput},
		{"malformed", fmt.Errorf("decode: %w", ErrMalformedOutput), KindMalformedOutput},
		{"other", New("boom"), KindOther},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: Classify() = %q, want %q", tc.name, got, tc.want)
		}
	}
}
