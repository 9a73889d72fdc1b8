package workflow

import (
	"fmt"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

// formatOutput projects a terminal RunState into the stable output
// contract. All fields are populated regardless of which path the run
// took.
func formatOutput(st *RunState) protocol.FinalOutput {
	out := protocol.FinalOutput{
		Category: string(protocol.CategoryGeneral),
		Context:  []string{},
		Draft:    "No response generated",
		Feedback: "No review completed",
	}

	if st.Classification != nil {
		out.Category = string(st.Classification.Category)
	}

	if st.Retrieval != nil {
		for _, s := range st.Retrieval.Snippets {
			out.Context = append(out.Context, s.Content)
		}
	}

	switch {
	case st.FinalResponse != nil:
		out.Draft = *st.FinalResponse
	case st.Draft != nil:
		out.Draft = st.Draft.Content
	}

	switch {
	case st.Review != nil:
		out.Approved = st.Review.Approved
		out.Score = st.Review.Score
		if st.Review.Approved {
			out.Feedback = "approved"
		} else {
			out.Feedback = st.Review.Feedback
		}
	case st.FinalResponse != nil:
		// A final response without a retained review is treated as
		// approved.
		out.Approved = true
		out.Score = 1.0
		out.Feedback = "approved"
	}

	if st.Escalation != nil {
		details := st.Escalation.Details
		out.Escalation = protocol.EscalationSummary{Needed: true, Details: &details}
	}

	return out
}

// faultOutput is the boundary's answer to an unhandled internal fault:
// still well-formed, rejected, and flagged for escalation.
func faultOutput(err error) protocol.FinalOutput {
	details := fmt.Sprintf("System error during processing: %v", err)
	return protocol.FinalOutput{
		Category:   string(protocol.CategoryGeneral),
		Context:    []string{},
		Draft:      "I apologize, but there was an error processing your request. Please contact support directly.",
		Approved:   false,
		Score:      0.0,
		Feedback:   fmt.Sprintf("System error: %v", err),
		Escalation: protocol.EscalationSummary{Needed: true, Details: &details},
	}
}
