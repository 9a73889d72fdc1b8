package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// Run processes one ticket end to end and always returns a well-formed
// FinalOutput: collaborator failures degrade quality, contract
// violations and panics surface as an escalated fault output. A raw
// error never crosses this boundary.
func (e *Engine) Run(ctx context.Context, t protocol.Ticket) (out protocol.FinalOutput) {
	st := newRunState(t, e.maxAttempts)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("run panicked", "run_id", st.RunID, "panic", fmt.Sprintf("%v", r))
			out = faultOutput(fmt.Errorf("internal panic: %v", r))
		}
	}()

	e.logger.Info("processing ticket", "run_id", st.RunID, "subject", t.Subject)

	if err := e.drive(ctx, st); err != nil {
		e.logger.Error("run failed", "run_id", st.RunID, "error", err)
		return faultOutput(err)
	}

	e.logger.Info("run complete",
		"run_id", st.RunID,
		"attempts", st.AttemptCount,
		"escalated", st.Escalation != nil,
	)
	return formatOutput(st)
}

// drive loops the state machine from Classify until Done. Termination is
// guaranteed: every pass through Draft increments AttemptCount, and the
// decision escalates at the MaxAttempts bound.
func (e *Engine) drive(ctx context.Context, st *RunState) error {
	state := StateClassify
	for state != StateDone {
		next, err := e.transition(ctx, state, st)
		if err != nil {
			return err
		}
		state = next
	}
	return nil
}

// transition executes one state's work and returns the next state.
func (e *Engine) transition(ctx context.Context, state State, st *RunState) (State, error) {
	switch state {
	case StateClassify:
		e.stepClassify(ctx, st)
		return StateRetrieve, nil

	case StateRetrieve:
		if err := e.stepRetrieve(st); err != nil {
			return StateDone, err
		}
		return StateDraft, nil

	case StateDraft:
		if err := e.stepDraft(ctx, st); err != nil {
			return StateDone, err
		}
		return StateReview, nil

	case StateReview:
		if err := e.stepReview(ctx, st); err != nil {
			return StateDone, err
		}
		return StateDecide, nil

	case StateDecide:
		return e.decide(st), nil

	case StateFinalize:
		e.finalize(st)
		return StateDone, nil

	case StateEscalate:
		e.escalate(ctx, st)
		return StateDone, nil

	default:
		return StateDone, fmt.Errorf("workflow: unexpected state %s", state)
	}
}

// decide applies the post-review decision rule, in precedence order:
// missing review escalates, approval finalizes, the attempt bound
// escalates, otherwise loop back to retrieval for another attempt.
func (e *Engine) decide(st *RunState) State {
	if st.Review == nil {
		return StateEscalate
	}
	if st.Review.Approved {
		return StateFinalize
	}
	if st.AttemptCount >= st.MaxAttempts {
		return StateEscalate
	}

	e.logger.Info("retrying",
		"run_id", st.RunID,
		"next_attempt", st.AttemptCount+1,
		"max_attempts", st.MaxAttempts,
	)
	return StateRetrieve
}

// finalize marks the run complete with the approved draft. No further
// scoring occurs after approval.
func (e *Engine) finalize(st *RunState) {
	content := st.Draft.Content
	st.FinalResponse = &content
	e.logger.Info("response finalized", "run_id", st.RunID, "attempt", st.AttemptCount)
}

// escalate builds the escalation record and hands it to the sink.
// Sink failures are logged and swallowed; the in-memory outcome stands.
func (e *Engine) escalate(ctx context.Context, st *RunState) {
	feedback := make([]string, len(st.AllReviews))
	for i, r := range st.AllReviews {
		feedback[i] = r.Feedback
	}

	st.Escalation = &protocol.Escalation{
		Needed:           true,
		Details:          fmt.Sprintf("Ticket failed after %d attempts. Requires human review.", st.AttemptCount),
		OriginalTicket:   st.Ticket,
		FailedDrafts:     st.AllDrafts,
		ReviewerFeedback: feedback,
	}

	e.logger.Warn("escalating ticket", "run_id", st.RunID, "attempts", st.AttemptCount)

	if e.sink == nil {
		return
	}
	if err := e.sink.Record(ctx, escalationRow(st)); err != nil {
		e.logger.Warn("escalation sink failed", "run_id", st.RunID, "error", err)
	}
}

// escalationRow projects the run into a durable log entry.
func escalationRow(st *RunState) protocol.EscalationRow {
	row := protocol.EscalationRow{
		ID:            uuid.NewString(),
		RunID:         st.RunID,
		Subject:       st.Ticket.Subject,
		Description:   st.Ticket.Description,
		Category:      protocol.CategoryGeneral,
		Attempts:      st.AttemptCount,
		FinalFeedback: "No feedback",
		Details:       st.Escalation.Details,
		CreatedAt:     time.Now(),
	}
	if st.Classification != nil {
		row.Category = st.Classification.Category
	}
	if len(st.AllReviews) > 0 {
		last := st.AllReviews[len(st.AllReviews)-1]
		row.FinalScore = last.Score
		row.FinalFeedback = last.Feedback
	}
	return row
}
