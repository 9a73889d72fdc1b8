// Package workflow drives a support ticket through the resolution
// pipeline: classify, retrieve, draft, review, then finalize, retry, or
// escalate. The engine owns the run state for exactly one ticket at a
// time; independent runs share nothing and may execute concurrently.
package workflow

import (
	"context"
	"log/slog"

	"github.com/resolvd-io/resolvd/internal/knowledge"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const (
	// DefaultMaxAttempts bounds the draft/review loop per run.
	DefaultMaxAttempts = 2

	defaultMaxSnippets = 3
)

// ClassifierResult is the raw collaborator verdict before validation.
// Category is free-form; the classify step maps it onto the known enum.
type ClassifierResult struct {
	Category   string
	Confidence float64
}

// Classifier categorizes a ticket. May fail with a transport error;
// failures are recovered by the classify step, never fatal to a run.
type Classifier interface {
	Classify(ctx context.Context, t protocol.Ticket) (ClassifierResult, error)
}

// GenerationRequest carries everything the generator needs for one draft.
type GenerationRequest struct {
	Ticket   protocol.Ticket
	Snippets []protocol.ContextSnippet
	// Feedback is the most recent reviewer feedback. Empty on the first
	// attempt; on retries the generator must address it.
	Feedback string
	Attempt  int
}

// Generator produces a draft response. May fail; a failure still
// consumes an attempt (the step substitutes a fallback draft).
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// EvaluationRequest carries one draft and its context for review.
type EvaluationRequest struct {
	Ticket   protocol.Ticket
	Draft    string
	Snippets []protocol.ContextSnippet
}

// Evaluator reviews a draft. The approval threshold is the evaluator's
// concern; the engine takes approved/score as reported.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (protocol.Review, error)
}

// EscalationSink durably records an escalated run. Recording is
// best-effort: a sink failure is logged and does not change the outcome.
type EscalationSink interface {
	Record(ctx context.Context, row protocol.EscalationRow) error
}

// Engine is the finite-state controller for ticket resolution runs.
type Engine struct {
	classifier  Classifier
	generator   Generator
	evaluator   Evaluator
	sink        EscalationSink // optional
	kb          *knowledge.Base
	logger      *slog.Logger
	maxAttempts int
	maxSnippets int
}

// Deps holds the engine's injected collaborators. Classifier, Generator,
// and Evaluator are required; Sink is optional; a nil Knowledge base
// defaults to the built-in catalogue.
type Deps struct {
	Classifier Classifier
	Generator  Generator
	Evaluator  Evaluator
	Sink       EscalationSink
	Knowledge  *knowledge.Base
	Logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts overrides the draft/review attempt bound.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithMaxSnippets overrides how many context snippets retrieval surfaces.
func WithMaxSnippets(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSnippets = n
		}
	}
}

// New creates an Engine with the given collaborators.
func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		classifier:  deps.Classifier,
		generator:   deps.Generator,
		evaluator:   deps.Evaluator,
		sink:        deps.Sink,
		kb:          deps.Knowledge,
		logger:      deps.Logger,
		maxAttempts: DefaultMaxAttempts,
		maxSnippets: defaultMaxSnippets,
	}
	if e.kb == nil {
		e.kb = knowledge.NewBase()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
