package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	errorskg "github.com/sweetpotato0/legalrag/pkg/errors"
)

// WrapError maps a provider failure onto the capability error taxonomy. status is the
// HTTP status reported by the backend, or 0 when the request never completed. A
// rejected request for structured output is reported as ErrUnsupportedOutputMode.
func WrapError(provider string, status int, structured bool, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded),
		status == http.StatusRequestTimeout,
		status == http.StatusGatewayTimeout:
		return fmt.Errorf("%s: %v: %w", provider, err, errorskg.ErrModelTimeout)
	case structured && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity):
		return fmt.Errorf("%s: %v: %w", provider, err, errorskg.ErrUnsupportedOutputMode)
	default:
		return fmt.Errorf("%s: %v: %w", provider, err, errorskg.ErrModelUnavailable)
	}
}
