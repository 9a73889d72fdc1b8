package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const (
	// Confidence assigned when the collaborator returns a label outside
	// the known category enum.
	unknownCategoryConfidence = 0.3
	// Confidence assigned when the classify call fails outright.
	classifyFailureConfidence = 0.1

	fallbackDraftContent = "I apologize, but I'm having trouble processing your request right now. Please contact our support team directly for immediate assistance."

	fallbackReviewScore    = 0.3
	fallbackReviewFeedback = "Unable to complete review due to technical error. Please revise the response."
)

// stepClassify categorizes the ticket. Collaborator failures degrade to a
// low-confidence general classification instead of aborting the run.
func (e *Engine) stepClassify(ctx context.Context, st *RunState) {
	res, err := e.classifier.Classify(ctx, st.Ticket)
	if err != nil {
		e.logger.Warn("classification failed, falling back to general",
			"run_id", st.RunID,
			"error", err,
		)
		st.Classification = &protocol.Classification{
			Category:   protocol.CategoryGeneral,
			Confidence: classifyFailureConfidence,
		}
		return
	}

	cat, known := protocol.ParseCategory(strings.ToLower(strings.TrimSpace(res.Category)))
	confidence := res.Confidence
	if !known {
		confidence = unknownCategoryConfidence
	}

	st.Classification = &protocol.Classification{Category: cat, Confidence: confidence}
	e.logger.Info("ticket classified",
		"run_id", st.RunID,
		"category", cat,
		"confidence", confidence,
	)
}

// stepRetrieve scores the category catalogue against the ticket text,
// folding in the last reviewer feedback on retries so retrieval adapts
// to what was rejected. Requires a classification.
func (e *Engine) stepRetrieve(st *RunState) error {
	if st.Classification == nil {
		return fmt.Errorf("workflow: retrieve requires a completed classification")
	}

	query := st.Ticket.Subject + " " + st.Ticket.Description
	if st.AttemptCount > 0 {
		if fb := st.lastFeedback(); fb != "" {
			query += " " + fb
		}
	}

	snippets := e.kb.Retrieve(query, st.Classification.Category, e.maxSnippets)
	st.Retrieval = &protocol.RetrievalResult{Snippets: snippets, QueryUsed: query}

	e.logger.Info("context retrieved",
		"run_id", st.RunID,
		"category", st.Classification.Category,
		"snippets", len(snippets),
	)
	return nil
}

// stepDraft generates a response attempt. A generator failure still
// consumes the attempt: a fixed apology draft is recorded in its place.
func (e *Engine) stepDraft(ctx context.Context, st *RunState) error {
	if st.Classification == nil || st.Retrieval == nil {
		return fmt.Errorf("workflow: draft requires classification and retrieval")
	}

	var feedback string
	if st.AttemptCount > 0 {
		feedback = st.lastFeedback()
	}

	content, err := e.generator.Generate(ctx, GenerationRequest{
		Ticket:   st.Ticket,
		Snippets: st.Retrieval.Snippets,
		Feedback: feedback,
		Attempt:  st.AttemptCount + 1,
	})
	if err != nil {
		e.logger.Warn("draft generation failed, recording fallback",
			"run_id", st.RunID,
			"attempt", st.AttemptCount+1,
			"error", err,
		)
		content = fallbackDraftContent
	}

	draft := protocol.Draft{
		Content:       strings.TrimSpace(content),
		GeneratedAt:   time.Now(),
		AttemptNumber: st.AttemptCount + 1,
	}
	st.Draft = &draft
	st.AttemptCount++
	st.AllDrafts = append(st.AllDrafts, draft)

	e.logger.Info("draft generated",
		"run_id", st.RunID,
		"attempt", draft.AttemptNumber,
	)
	return nil
}

// stepReview evaluates the current draft. An evaluator failure also
// consumes the attempt: a fixed rejecting review biases the run toward
// retry or escalation rather than silently approving.
func (e *Engine) stepReview(ctx context.Context, st *RunState) error {
	if st.Draft == nil {
		return fmt.Errorf("workflow: review requires a generated draft")
	}

	var snippets []protocol.ContextSnippet
	if st.Retrieval != nil {
		snippets = st.Retrieval.Snippets
	}

	review, err := e.evaluator.Evaluate(ctx, EvaluationRequest{
		Ticket:   st.Ticket,
		Draft:    st.Draft.Content,
		Snippets: snippets,
	})
	if err != nil {
		e.logger.Warn("review failed, recording rejection",
			"run_id", st.RunID,
			"attempt", st.AttemptCount,
			"error", err,
		)
		review = protocol.Review{
			Approved: false,
			Score:    fallbackReviewScore,
			Feedback: fallbackReviewFeedback,
			CriteriaScores: map[string]float64{
				"correctness": fallbackReviewScore,
				"usefulness":  fallbackReviewScore,
				"tone":        fallbackReviewScore,
				"safety":      fallbackReviewScore,
			},
		}
	}

	st.Review = &review
	st.AllReviews = append(st.AllReviews, review)

	e.logger.Info("draft reviewed",
		"run_id", st.RunID,
		"attempt", st.AttemptCount,
		"approved", review.Approved,
		"score", review.Score,
	)
	return nil
}
