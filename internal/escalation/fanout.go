package escalation

import (
	"context"
	"errors"

	"github.com/resolvd-io/resolvd/internal/workflow"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Fanout delivers each escalation to every sink. One sink failing does
// not stop delivery to the others; all errors are joined and reported so
// the engine can log them.
type Fanout struct {
	sinks []workflow.EscalationSink
}

// NewFanout creates a fanout over the given sinks. Nil sinks are skipped.
func NewFanout(sinks ...workflow.EscalationSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Record(ctx context.Context, row protocol.EscalationRow) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Record(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
