package errors

import (
	"context"
	"errors"
	"net"
)

// Sentinel errors for capability failures. Adapters wrap them with %w so callers can
// classify failures with errors.Is.
var (
	// ErrModelUnavailable indicates the language model backend could not be reached or refused the call.
	ErrModelUnavailable = errors.New("language model unavailable")

	// ErrModelTimeout indicates a language model call exceeded its deadline.
	ErrModelTimeout = errors.New("language model timeout")

	// ErrUnsupportedOutputMode indicates the backend cannot honour structured decoding.
	ErrUnsupportedOutputMode = errors.New("structured output not supported")

	// ErrIndexUnavailable indicates the retrieval index could not be queried.
	ErrIndexUnavailable = errors.New("retrieval index unavailable")

	// ErrMalformedOutput indicates capability output did not match the expected shape.
	ErrMalformedOutput = errors.New("malformed capability output")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")
)

// Kind is the coarse failure category used for logging and metrics.
type Kind string

const (
	KindNone                  Kind = ""
	KindCapabilityUnavailable Kind = "capability_unavailable"
	KindCapabilityTimeout     Kind = "capability_timeout"
	KindMalformedOutput       Kind = "malformed_capability_output"
	KindCancelled             Kind = "cancelled"
	KindOther                 Kind = "other"
)

// Classify maps an error onto the failure taxonomy.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrModelTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindCapabilityTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindCapabilityTimeout
	case errors.Is(err, ErrMalformedOutput), errors.Is(err, ErrUnsupportedOutputMode):
		return KindMalformedOutput
	case errors.Is(err, ErrModelUnavailable), errors.Is(err, ErrIndexUnavailable):
		return KindCapabilityUnavailable
	default:
		return KindOther
	}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
