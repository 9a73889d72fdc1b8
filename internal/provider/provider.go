package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Provider is the abstraction over LLM APIs.
type Provider interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Name() string
}

// apiError is returned for non-2xx provider responses so callers can
// distinguish retryable statuses from hard failures.
type apiError struct {
	provider string
	status   int
	body     string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: api error (status %d): %s", e.provider, e.status, e.body)
}

// retryable reports whether the error is worth retrying: rate limits,
// server-side errors, and transport failures.
func retryable(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status == http.StatusTooManyRequests || ae.status >= 500
	}
	// Network-level errors (connection reset, timeout) have no status.
	return true
}
