package workflow

import (
	"github.com/google/uuid"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// State is a node in the resolution state machine.
type State int

const (
	StateClassify State = iota
	StateRetrieve
	StateDraft
	StateReview
	StateDecide
	StateFinalize
	StateEscalate
	StateDone
)

func (s State) String() string {
	switch s {
	case StateClassify:
		return "classify"
	case StateRetrieve:
		return "retrieve"
	case StateDraft:
		return "draft"
	case StateReview:
		return "review"
	case StateDecide:
		return "decide"
	case StateFinalize:
		return "finalize"
	case StateEscalate:
		return "escalate"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// RunState is the accumulating record for one ticket's run. Latest-value
// slots hold the current attempt's results; AllDrafts and AllReviews are
// append-only histories, so AttemptCount always equals len(AllDrafts).
// Exactly one of FinalResponse/Escalation is set at termination.
type RunState struct {
	RunID  string
	Ticket protocol.Ticket

	Classification *protocol.Classification
	Retrieval      *protocol.RetrievalResult
	Draft          *protocol.Draft
	Review         *protocol.Review

	AttemptCount int
	MaxAttempts  int
	AllDrafts    []protocol.Draft
	AllReviews   []protocol.Review

	FinalResponse *string
	Escalation    *protocol.Escalation
}

func newRunState(t protocol.Ticket, maxAttempts int) *RunState {
	return &RunState{
		RunID:       uuid.NewString(),
		Ticket:      t,
		MaxAttempts: maxAttempts,
	}
}

// Terminal reports whether the run has reached a terminal outcome.
func (s *RunState) Terminal() bool {
	return s.FinalResponse != nil || s.Escalation != nil
}

// lastFeedback returns the most recent reviewer feedback, or "" when no
// review exists yet.
func (s *RunState) lastFeedback() string {
	if len(s.AllReviews) == 0 {
		return ""
	}
	return s.AllReviews[len(s.AllReviews)-1].Feedback
}
