package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const defaultMaxRetries = 3

// RetryingProvider wraps a Provider with exponential backoff on rate
// limits, server errors, and transport failures. Hard API errors
// (4xx other than 429) fail immediately.
type RetryingProvider struct {
	inner      Provider
	maxRetries uint64
	logger     *slog.Logger
}

// RetryOption configures a RetryingProvider.
type RetryOption func(*RetryingProvider)

// WithMaxRetries sets the number of retries after the initial attempt.
func WithMaxRetries(n uint64) RetryOption {
	return func(p *RetryingProvider) { p.maxRetries = n }
}

// WithRetryLogger sets the logger used for retry warnings.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(p *RetryingProvider) { p.logger = l }
}

// NewRetrying wraps the given provider with backoff retry.
func NewRetrying(inner Provider, opts ...RetryOption) *RetryingProvider {
	p := &RetryingProvider{
		inner:      inner,
		maxRetries: defaultMaxRetries,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RetryingProvider) Name() string { return p.inner.Name() }

func (p *RetryingProvider) Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	var resp *protocol.ChatResponse
	op := func() error {
		var err error
		resp, err = p.inner.Chat(ctx, req)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		p.logger.Warn("provider call failed, retrying",
			"provider", p.inner.Name(),
			"error", err,
		)
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return resp, nil
}
