package ai

import (
	"context"
	"fmt"
	"strings"
)

// AdvisorQuestion is a renewal Q&A request. When Question is empty one is derived
// from the document fields.
type AdvisorQuestion struct {
	Question     string
	DocumentType string
	DocumentName string
	ExpiryDate   string
}

// AdvisorDocument is a line of the user's document context.
type AdvisorDocument struct {
	Name         string
	DocumentType string
	ExpiryDate   string
}

// Prompt returns the question to send, deriving one when none was asked.
func (q AdvisorQuestion) Prompt() string {
	if strings.TrimSpace(q.Question) != "" || q.DocumentType == "" {
		return q.Question
	}
	var b strings.Builder
	fmt.Fprintf(&b, "What documents are required to renew a %s", q.DocumentType)
	if q.DocumentName != "" {
		fmt.Fprintf(&b, " (%s)", q.DocumentName)
	}
	if q.ExpiryDate != "" {
		fmt.Fprintf(&b, " that expires on %s", q.ExpiryDate)
	}
	b.WriteString("?")
	return b.String()
}

func advisorSystemPrompt(docs []AdvisorDocument) string {
	summary := "No documents yet"
	if len(docs) > 0 {
		lines := make([]string, len(docs))
		for i, d := range docs {
			lines[i] = fmt.Sprintf("- %s (%s): expires on %s", d.Name, d.DocumentType, d.ExpiryDate)
		}
		summary = strings.Join(lines, "\n")
	}
	return `You are a helpful document renewal advisor assistant.
Your role is to provide clear, concise information about document renewal requirements.

Context about user's documents:
` + summary + `

When advising about document renewals:
1. List the required documents needed for renewal
2. Mention typical processing times
3. Provide any important deadlines or considerations
4. Suggest documents the user might already have that can be used
5. Be specific to the document type mentioned

Keep responses clear, organized, and actionable.`
}

// Advise answers a free-form renewal question with the user's documents as context.
func (c *Client) Advise(ctx context.Context, q AdvisorQuestion, docs []AdvisorDocument) (string, error) {
	prompt := q.Prompt()
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("question or document type is required")
	}
	c.log.Info("ai_advisor_start", "documents", len(docs))
	return c.Text(ctx, advisorSystemPrompt(docs), prompt)
}
