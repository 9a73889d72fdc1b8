package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/resolvd-io/resolvd/internal/provider"
	"github.com/resolvd-io/resolvd/internal/workflow"
	"github.com/resolvd-io/resolvd/pkg/protocol"
)

const generatorGuidelines = `You are a customer support agent. Write a helpful, empathetic response to the customer's ticket.

GUIDELINES:
- Be professional, empathetic, and concise
- Use numbered steps for instructions
- Only use information from the provided context
- If context lacks information, politely say you don't have that information
- Don't overpromise refunds or make policy exceptions
- End with a next-step suggestion if the problem might persist
- Keep response under 300 words`

// Generator implements workflow.Generator with an LLM call.
type Generator struct {
	prov  provider.Provider
	model string
}

// NewGenerator creates an LLM-backed draft generator.
func NewGenerator(prov provider.Provider, model string) *Generator {
	return &Generator{prov: prov, model: model}
}

func (g *Generator) Generate(ctx context.Context, req workflow.GenerationRequest) (string, error) {
	var sb strings.Builder
	sb.WriteString(generatorGuidelines)
	sb.WriteString("\n\nCONTEXT INFORMATION:\n")
	sb.WriteString(contextText(req.Snippets))
	if req.Feedback != "" {
		sb.WriteString("\n\nPREVIOUS REVIEWER FEEDBACK TO ADDRESS:\n")
		sb.WriteString(req.Feedback)
	}

	userPrompt := fmt.Sprintf(`Customer Ticket:
Subject: %s
Description: %s

Write a helpful response based on the provided context.`, req.Ticket.Subject, req.Ticket.Description)

	resp, err := g.prov.Chat(ctx, protocol.ChatRequest{
		Model: g.model,
		Messages: []protocol.ChatMessage{
			{Role: "system", Content: sb.String()},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// contextText renders snippets for inclusion in a prompt.
func contextText(snippets []protocol.ContextSnippet) string {
	if len(snippets) == 0 {
		return "No context available"
	}
	parts := make([]string, len(snippets))
	for i, s := range snippets {
		parts[i] = fmt.Sprintf("Source: %s\nContent: %s", s.Source, s.Content)
	}
	return strings.Join(parts, "\n\n")
}
