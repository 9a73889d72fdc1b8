package protocol

import "time"

// ContextSnippet is a knowledge base entry scored against a query.
type ContextSnippet struct {
	Content        string  `json:"content"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RetrievalResult holds the snippets surfaced for one attempt,
// ordered by descending relevance. Recomputed on every retry.
type RetrievalResult struct {
	Snippets  []ContextSnippet `json:"snippets"`
	QueryUsed string           `json:"query_used"`
}

// Draft is one generated response attempt.
type Draft struct {
	Content       string    `json:"content"`
	GeneratedAt   time.Time `json:"generated_at"`
	AttemptNumber int       `json:"attempt_number"`
}

// Review is the evaluation of one draft.
type Review struct {
	Approved       bool               `json:"approved"`
	Score          float64            `json:"score"`
	Feedback       string             `json:"feedback"`
	CriteriaScores map[string]float64 `json:"criteria_scores"`
}

// Escalation is the terminal record built when a run exhausts its attempts.
type Escalation struct {
	Needed           bool     `json:"needed"`
	Details          string   `json:"details"`
	OriginalTicket   Ticket   `json:"original_ticket"`
	FailedDrafts     []Draft  `json:"failed_drafts"`
	ReviewerFeedback []string `json:"reviewer_feedback"`
}

// EscalationRow is the durable log entry recorded for an escalated run.
type EscalationRow struct {
	ID            string    `json:"id"`
	RunID         string    `json:"run_id"`
	Subject       string    `json:"subject"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Attempts      int       `json:"attempts"`
	FinalScore    float64   `json:"final_score"`
	FinalFeedback string    `json:"final_feedback"`
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"created_at"`
}

// EscalationSummary is the escalation block of a FinalOutput.
type EscalationSummary struct {
	Needed  bool    `json:"needed"`
	Details *string `json:"details"`
}

// FinalOutput is the stable output contract for one processed ticket.
// The boundary always produces one, even on internal faults.
type FinalOutput struct {
	Category   string            `json:"category"`
	Context    []string          `json:"context"`
	Draft      string            `json:"draft"`
	Approved   bool              `json:"approved"`
	Score      float64           `json:"score"`
	Feedback   string            `json:"feedback"`
	Escalation EscalationSummary `json:"escalation"`
}
