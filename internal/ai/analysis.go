package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AnalysisType selects the prompt and result schema of an analysis request.
type AnalysisType string

const (
	AnalysisClassify            AnalysisType = "classify"
	AnalysisRenewalPrediction   AnalysisType = "renewal_prediction"
	AnalysisPriorityScoring     AnalysisType = "priority_scoring"
	AnalysisCostEstimate        AnalysisType = "cost_estimate"
	AnalysisComplianceCheck     AnalysisType = "compliance_check"
	AnalysisFullAnalysis        AnalysisType = "full_analysis"
	AnalysisRenewalRequirements AnalysisType = "renewal_requirements"
	// AnalysisRenewalSuggestions runs over several documents at once.
	AnalysisRenewalSuggestions AnalysisType = "renewal_suggestions"
)

// Valid reports whether t is a known analysis type.
func (t AnalysisType) Valid() bool {
	if t == AnalysisRenewalSuggestions {
		return true
	}
	_, ok := analyses[t]
	return ok
}

// AnalysisToolName is the function the model is forced to call.
const AnalysisToolName = "analyze_document"

// DocumentInput carries the document fields a prompt may reference.
type DocumentInput struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DocumentType      string `json:"document_type"`
	IssuingAuthority  string `json:"issuing_authority,omitempty"`
	Notes             string `json:"notes,omitempty"`
	ExpiryDate        string `json:"expiry_date"`
	DaysUntilExpiry   int    `json:"days_until_expiry"`
	RenewalPeriodDays int    `json:"renewal_period_days"`
}

type analysisSpec struct {
	system string
	user   func(d DocumentInput) string
	params map[string]any
}

var (
	urgencyEnum = map[string]any{"type": "string", "enum": []string{"low", "medium", "high", "critical"}}
	stringList  = func(desc string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
	}
	describedAs = func(typ, desc string) map[string]any {
		return map[string]any{"type": typ, "description": desc}
	}
)

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

var analyses = map[AnalysisType]analysisSpec{
	AnalysisClassify: {
		system: "You are an expert document classification assistant with deep knowledge of international document types, legal requirements and categorization standards.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Classify this document:\nName: %s\nCurrent Type: %s\nIssuing Authority: %s\nNotes: %s\nExpiry Date: %s\n\nConsider the document purpose, its legal category, regulatory requirements and international standards.",
				d.Name, d.DocumentType, orDefault(d.IssuingAuthority, "Not specified"), orDefault(d.Notes, "None"), d.ExpiryDate)
		},
		params: map[string]any{
			"suggestedType":    describedAs("string", "Most appropriate document type"),
			"confidence":       describedAs("number", "Confidence level 0-1"),
			"reasoning":        describedAs("string", "Explanation for the classification"),
			"alternativeTypes": stringList("Other possible classifications"),
		},
	},
	AnalysisRenewalPrediction: {
		system: "You are a renewal planning expert who knows government processing times, regional regulations and renewal best practices.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Recommend a renewal strategy for this document:\nDocument: %s\nType: %s\nCurrent Expiry: %s\nDays Until Expiry: %d\nCurrent Reminder Period: %d days\n\nConsider processing delays, peak seasons, required paperwork and typical complications.",
				d.Name, d.DocumentType, d.ExpiryDate, d.DaysUntilExpiry, d.RenewalPeriodDays)
		},
		params: map[string]any{
			"suggestedReminderDays":   describedAs("number", "Optimal days before expiry to start renewal"),
			"reasoning":               describedAs("string", "Rationale for the recommendation"),
			"urgencyLevel":            urgencyEnum,
			"estimatedProcessingTime": describedAs("string", "Expected processing duration"),
			"renewalTips":             stringList("Practical renewal tips"),
		},
	},
	AnalysisPriorityScoring: {
		system: "You are a document priority assessor who weighs expiry timeline, document importance and the consequences of lapsing.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Assess the priority of this document:\nName: %s\nType: %s\nDays Until Expiry: %d\nIssuing Authority: %s\n\nConsider legal consequences of expiry, replacement difficulty, everyday importance and grace periods.",
				d.Name, d.DocumentType, d.DaysUntilExpiry, orDefault(d.IssuingAuthority, "Unknown"))
		},
		params: map[string]any{
			"priorityScore":        describedAs("number", "Priority score 0-100"),
			"urgencyLevel":         urgencyEnum,
			"actionRecommendation": describedAs("string", "Specific action the user should take"),
			"factors":              stringList("Key factors affecting priority"),
		},
	},
	AnalysisCostEstimate: {
		system: "You are a financial analyst specializing in document renewal costs, government fees and related expenses across countries.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Estimate the renewal cost of this document:\nDocument: %s\nType: %s\nIssuing Authority: %s\n\nInclude government fees, service charges and likely additional costs.",
				d.Name, d.DocumentType, orDefault(d.IssuingAuthority, "Unknown"))
		},
		params: map[string]any{
			"estimatedCost":  describedAs("string", "Cost range in local currency"),
			"additionalFees": stringList("Potential additional fees"),
			"costSavingTips": stringList("Ways to reduce renewal costs"),
		},
	},
	AnalysisComplianceCheck: {
		system: "You are a legal compliance expert on document requirements, renewal regulations and obligations across jurisdictions.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Check the compliance requirements of this document:\nDocument: %s\nType: %s\nDays Until Expiry: %d\nIssuing Authority: %s\n\nIdentify legal requirements, necessary paperwork, deadlines and potential compliance issues.",
				d.Name, d.DocumentType, d.DaysUntilExpiry, orDefault(d.IssuingAuthority, "Unknown"))
		},
		params: map[string]any{
			"isCompliant":       describedAs("boolean", "Current compliance status"),
			"complianceDetails": describedAs("string", "Compliance explanation"),
			"requiredDocuments": stringList("Documents needed for renewal"),
			"warnings":          stringList("Important compliance warnings"),
		},
	},
	AnalysisFullAnalysis: {
		system: "You are a document management assistant giving a holistic analysis that covers classification, renewal strategy, costs, compliance and next steps.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("Analyze this document completely:\nDocument: %s\nType: %s\nExpiry Date: %s\nDays Until Expiry: %d\nIssuing Authority: %s\nNotes: %s\n\nDeliver an overview, key insights, a priority assessment, cost considerations and a step-by-step action plan.",
				d.Name, d.DocumentType, d.ExpiryDate, d.DaysUntilExpiry, orDefault(d.IssuingAuthority, "Unknown"), orDefault(d.Notes, "None"))
		},
		params: map[string]any{
			"summary": describedAs("string", "Overview of the document situation"),
			"keyInsights": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
				},
				"description": "Important insights about the document",
			},
			"actionPlan":   stringList("Step-by-step action plan"),
			"urgencyLevel": urgencyEnum,
		},
	},
	AnalysisRenewalRequirements: {
		system: "You are a renewal specialist who lists the exact documents, items and requirements needed to renew a document in a given country.",
		user: func(d DocumentInput) string {
			return fmt.Sprintf("List everything required to renew this document:\nDocument: %s\nType: %s\nExpiry Date: %s\nDays Until Expiry: %d\nIssuing Authority: %s\n\n"+
				"Cover required documents (originals, copies, certified copies), identification, photo specifications, fees and payment methods, forms, medical certificates, proof of residence and anything specific to the document type and country. "+
				"Be specific and include quantities, e.g. \"2 passport-sized photos\".",
				d.Name, d.DocumentType, d.ExpiryDate, d.DaysUntilExpiry, orDefault(d.IssuingAuthority, "Unknown"))
		},
		params: map[string]any{
			"requiredDocuments": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"category": describedAs("string", "Category such as 'Identity Proof', 'Photos' or 'Fees'"),
						"items":    stringList("Specific items"),
					},
				},
				"description": "Categorized list of required documents and items",
			},
			"processingSteps":    stringList("Step-by-step renewal process"),
			"importantNotes":     stringList("Critical things to remember"),
			"estimatedTimeframe": describedAs("string", "Expected processing time"),
			"whereToApply":       describedAs("string", "Where to submit the renewal application"),
		},
	},
}

func countryContext(country string) string {
	if country == "" {
		return ""
	}
	return fmt.Sprintf("\nUser's Country: %s - Consider country-specific regulations, costs, and procedures.", country)
}

// analysisTool builds the forced function declaration for an analysis schema.
func analysisTool(params map[string]any) Tool {
	required := make([]string, 0, len(params))
	for k := range params {
		required = append(required, k)
	}
	sort.Strings(required)
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        AnalysisToolName,
			Description: "Analyze document and provide structured, actionable insights",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           params,
				"required":             required,
				"additionalProperties": false,
			},
		},
	}
}

// BuildAnalysisRequest returns the chat request for a single-document analysis.
func BuildAnalysisRequest(t AnalysisType, doc DocumentInput, country string) (ChatRequest, error) {
	prompt, ok := analyses[t]
	if !ok {
		return ChatRequest{}, fmt.Errorf("unsupported analysis type %q", t)
	}
	choice := &ToolChoice{Type: "function"}
	choice.Function.Name = AnalysisToolName
	return ChatRequest{
		Messages: []Message{
			{Role: "system", Content: prompt.system},
			{Role: "user", Content: prompt.user(doc) + countryContext(country)},
		},
		Tools:      []Tool{analysisTool(prompt.params)},
		ToolChoice: choice,
	}, nil
}

// Analyze runs a single-document analysis and returns the tool-call arguments as JSON.
func (c *Client) Analyze(ctx context.Context, t AnalysisType, doc DocumentInput, country string) (json.RawMessage, error) {
	req, err := BuildAnalysisRequest(t, doc, country)
	if err != nil {
		return nil, err
	}
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: no analysis result", ErrAnalysisFailed)
	}
	args := json.RawMessage(calls[0].Function.Arguments)
	if !json.Valid(args) {
		return nil, fmt.Errorf("%w: invalid tool arguments", ErrAnalysisFailed)
	}
	c.log.Info("ai_analysis_complete", "analysis_type", string(t), "document", doc.Name)
	return args, nil
}
