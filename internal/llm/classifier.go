package llm

import (
	"context"
	"fmt"

	"github.com/resolvd-io/resolvd/internal/provider"
	"github.com/resolvd-io/resolvd/internal/workflow"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const classifierSystemPrompt = `You are a support ticket classifier. Classify tickets into exactly ONE category:
- billing: Payment, invoices, refunds, subscriptions, pricing
- technical: Login issues, API problems, bugs, system errors, performance
- security: Password, 2FA, suspicious activity, data privacy, account security
- general: Account management, feature requests, general inquiries

Respond with JSON format:
{
    "category": "billing|technical|security|general",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation"
}`

// Classifier implements workflow.Classifier with an LLM call.
type Classifier struct {
	prov  provider.Provider
	model string
}

// NewClassifier creates an LLM-backed classifier. model may be empty to
// use the provider's default.
func NewClassifier(prov provider.Provider, model string) *Classifier {
	return &Classifier{prov: prov, model: model}
}

func (c *Classifier) Classify(ctx context.Context, t protocol.Ticket) (workflow.ClassifierResult, error) {
	userPrompt := fmt.Sprintf(`Classify this support ticket:

Subject: %s
Description: %s

Classify into billing, technical, security, or general.`, t.Subject, t.Description)

	resp, err := c.prov.Chat(ctx, protocol.ChatRequest{
		Model: c.model,
		Messages: []protocol.ChatMessage{
			{Role: "system", Content: classifierSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return workflow.ClassifierResult{}, fmt.Errorf("llm: classify: %w", err)
	}

	// Defaults apply when the model answers without extractable JSON.
	payload := struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}{Category: "general", Confidence: 0.5}
	decodeJSON(resp.Content, &payload)

	return workflow.ClassifierResult{
		Category:   payload.Category,
		Confidence: payload.Confidence,
	}, nil
}
