package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const suggestionsSystemPrompt = "You are a helpful document renewal assistant. Always respond with valid JSON."

// Suggestion is the renewal advice for one document of a batch.
type Suggestion struct {
	DocumentID   string   `json:"documentId"`
	DocumentName string   `json:"documentName"`
	Priority     string   `json:"priority"`
	Suggestion   string   `json:"suggestion"`
	ActionItems  []string `json:"actionItems"`
}

// Suggestions is the reply of a renewal_suggestions batch.
type Suggestions struct {
	Suggestions []Suggestion `json:"suggestions"`
}

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

func suggestionsPrompt(docs []DocumentInput) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant specializing in document renewal guidance. Analyze the following documents and provide actionable renewal suggestions.\n\nDocuments requiring attention:\n")
	for _, d := range docs {
		fmt.Fprintf(&b, "\n- Document ID: %s\n- Document: %s\n- Type: %s\n- Expiry Date: %s\n- Days Until Expiry: %d\n- Issuing Authority: %s\n",
			d.ID, d.Name, d.DocumentType, d.ExpiryDate, d.DaysUntilExpiry, orDefault(d.IssuingAuthority, "Not specified"))
	}
	b.WriteString(`
For each document, provide:
1. Priority level (high/medium/low) based on urgency
2. A concise suggestion explaining what needs to be done
3. 2-3 specific action items to complete the renewal

Respond with a JSON object of this structure:
{
  "suggestions": [
    {
      "documentId": "uuid",
      "documentName": "string",
      "priority": "high|medium|low",
      "suggestion": "brief explanation",
      "actionItems": ["item1", "item2", "item3"]
    }
  ]
}`)
	return b.String()
}

// parseJSONReply decodes content as JSON, falling back to the first fenced code block.
func parseJSONReply(content string, v any) error {
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}
	m := fencedJSON.FindStringSubmatch(content)
	if m == nil {
		return fmt.Errorf("%w: reply is not json", ErrAnalysisFailed)
	}
	if err := json.Unmarshal([]byte(m[1]), v); err != nil {
		return fmt.Errorf("%w: decode fenced reply: %v", ErrAnalysisFailed, err)
	}
	return nil
}

// Suggest asks for renewal suggestions over several documents in one round trip.
func (c *Client) Suggest(ctx context.Context, docs []DocumentInput) (*Suggestions, error) {
	c.log.Info("ai_suggestions_start", "documents", len(docs))
	content, err := c.Text(ctx, suggestionsSystemPrompt, suggestionsPrompt(docs))
	if err != nil {
		return nil, err
	}
	var out Suggestions
	if err := parseJSONReply(content, &out); err != nil {
		c.log.Error("ai_suggestions_parse_failed", "error", err.Error())
		return nil, err
	}
	return &out, nil
}
