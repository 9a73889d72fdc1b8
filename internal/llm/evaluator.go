package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/resolvd-io/resolvd/internal/provider"
	"github.com/resolvd-io/resolvd/internal/workflow"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const evaluatorSystemPrompt = `You are a quality assurance reviewer for customer support responses.
Evaluate the draft response against these criteria:

1. CORRECTNESS (0.0-1.0): Is the response factually accurate and grounded in context?
2. USEFULNESS (0.0-1.0): Does it provide actionable steps and anticipate user needs?
3. TONE (0.0-1.0): Is it professional, empathetic, and appropriately concise?
4. SAFETY (0.0-1.0): Does it avoid risky instructions and overpromising?

APPROVAL THRESHOLD: Overall score >= 0.75

Respond in JSON format:
{
    "approved": true/false,
    "overall_score": 0.0-1.0,
    "criteria_scores": {
        "correctness": 0.0-1.0,
        "usefulness": 0.0-1.0,
        "tone": 0.0-1.0,
        "safety": 0.0-1.0
    },
    "feedback": "specific feedback for improvement or 'approved'"
}`

// Evaluator implements workflow.Evaluator with an LLM call. The approval
// threshold lives in the prompt; the reported verdict is taken as-is.
type Evaluator struct {
	prov  provider.Provider
	model string
}

// NewEvaluator creates an LLM-backed draft reviewer.
func NewEvaluator(prov provider.Provider, model string) *Evaluator {
	return &Evaluator{prov: prov, model: model}
}

func (e *Evaluator) Evaluate(ctx context.Context, req workflow.EvaluationRequest) (protocol.Review, error) {
	var contents []string
	for _, s := range req.Snippets {
		contents = append(contents, s.Content)
	}
	available := "No context available"
	if len(contents) > 0 {
		available = strings.Join(contents, "\n")
	}

	userPrompt := fmt.Sprintf(`Original Ticket:
Subject: %s
Description: %s

Draft Response to Review:
%s

Available Context:
%s

Evaluate this draft response.`, req.Ticket.Subject, req.Ticket.Description, req.Draft, available)

	resp, err := e.prov.Chat(ctx, protocol.ChatRequest{
		Model: e.model,
		Messages: []protocol.ChatMessage{
			{Role: "system", Content: evaluatorSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return protocol.Review{}, fmt.Errorf("llm: evaluate: %w", err)
	}

	payload := struct {
		Approved       bool               `json:"approved"`
		OverallScore   float64            `json:"overall_score"`
		CriteriaScores map[string]float64 `json:"criteria_scores"`
		Feedback       string             `json:"feedback"`
	}{Feedback: "No feedback provided"}
	decodeJSON(resp.Content, &payload)

	if payload.CriteriaScores == nil {
		payload.CriteriaScores = map[string]float64{
			"correctness": 0.0,
			"usefulness":  0.0,
			"tone":        0.0,
			"safety":      0.0,
		}
	}

	return protocol.Review{
		Approved:       payload.Approved,
		Score:          payload.OverallScore,
		Feedback:       payload.Feedback,
		CriteriaScores: payload.CriteriaScores,
	}, nil
}
