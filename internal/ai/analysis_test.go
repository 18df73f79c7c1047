package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleDoc = DocumentInput{
	ID:                "doc-1",
	Name:              "Driver License",
	DocumentType:      "license",
	ExpiryDate:        "2026-01-31",
	DaysUntilExpiry:   45,
	RenewalPeriodDays: 30,
}

func TestAnalysisType_Valid(t *testing.T) {
	for _, at := range []AnalysisType{
		AnalysisClassify, AnalysisRenewalPrediction, AnalysisPriorityScoring, AnalysisCostEstimate,
		AnalysisComplianceCheck, AnalysisFullAnalysis, AnalysisRenewalRequirements, AnalysisRenewalSuggestions,
	} {
		assert.True(t, at.Valid(), at)
	}
	assert.False(t, AnalysisType("horoscope").Valid())
}

func TestBuildAnalysisRequest(t *testing.T) {
	req, err := BuildAnalysisRequest(AnalysisPriorityScoring, sampleDoc, "Kenya")
	require.NoError(t, err)

	require.Len(t, req.Messages, 2)
	user := req.Messages[1].Content.(string)
	assert.Contains(t, user, "Driver License")
	assert.Contains(t, user, "Days Until Expiry: 45")
	assert.Contains(t, user, "User's Country: Kenya")
	assert.Contains(t, user, "Issuing Authority: Unknown")

	require.Len(t, req.Tools, 1)
	fn := req.Tools[0].Function
	assert.Equal(t, AnalysisToolName, fn.Name)
	assert.Equal(t, false, fn.Parameters["additionalProperties"])
	assert.Equal(t, []string{"actionRecommendation", "factors", "priorityScore", "urgencyLevel"}, fn.Parameters["required"])
	require.NotNil(t, req.ToolChoice)
	assert.Equal(t, AnalysisToolName, req.ToolChoice.Function.Name)

	noCountry, err := BuildAnalysisRequest(AnalysisClassify, sampleDoc, "")
	require.NoError(t, err)
	assert.NotContains(t, noCountry.Messages[1].Content.(string), "User's Country")

	_, err = BuildAnalysisRequest(AnalysisRenewalSuggestions, sampleDoc, "")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "function", req.ToolChoice.Type)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[{"id":"1","type":"function","function":{"name":"analyze_document","arguments":"{\"priorityScore\":80,\"urgencyLevel\":\"high\"}"}}]}}]}`))
	})
	out, err := c.Analyze(context.Background(), AnalysisPriorityScoring, sampleDoc, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"priorityScore":80,"urgencyLevel":"high"}`, string(out))
}

func TestAnalyze_NoToolCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contentReply("plain text")))
	})
	_, err := c.Analyze(context.Background(), AnalysisClassify, sampleDoc, "")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain json", content: `{"suggestions":[{"documentId":"doc-1","priority":"high","actionItems":["a"]}]}`},
		{name: "fenced json", content: "Here you go:\n```json\n{\"suggestions\":[{\"documentId\":\"doc-1\",\"priority\":\"high\"}]}\n```"},
		{name: "not json", content: "sorry", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(contentReply(tt.content)))
			})
			out, err := c.Suggest(context.Background(), []DocumentInput{sampleDoc})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnalysisFailed)
				return
			}
			require.NoError(t, err)
			require.Len(t, out.Suggestions, 1)
			assert.Equal(t, "doc-1", out.Suggestions[0].DocumentID)
			assert.Equal(t, "high", out.Suggestions[0].Priority)
		})
	}
}

func TestSuggestionsPrompt(t *testing.T) {
	p := suggestionsPrompt([]DocumentInput{sampleDoc})
	assert.Contains(t, p, "- Document: Driver License")
	assert.Contains(t, p, "- Issuing Authority: Not specified")
	assert.True(t, strings.Contains(p, `"suggestions"`))
}

func TestScan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		parts, ok := req.Messages[1].Content.([]any)
		require.True(t, ok)
		assert.Len(t, parts, 2)
		_, _ = w.Write([]byte(contentReply("Result:\n{\"document_type\":\"passport\",\"name\":\"Passport\",\"expiry_date\":\"2030-05-01\",\"renewal_period_days\":120}")))
	})
	out, err := c.Scan(context.Background(), "data:image/png;base64,AAAA", "France")
	require.NoError(t, err)
	assert.Equal(t, "passport", out.DocumentType)
	assert.Equal(t, 120, out.RenewalPeriodDays)
}

func TestScan_NoJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(contentReply("cannot read image")))
	})
	_, err := c.Scan(context.Background(), "data:image/png;base64,AAAA", "")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
}

func TestBuildScanRequest_Country(t *testing.T) {
	req := BuildScanRequest("data:x", "Japan")
	assert.Contains(t, req.Messages[0].Content.(string), "User is in: Japan.")
	req = BuildScanRequest("data:x", "")
	assert.Contains(t, req.Messages[0].Content.(string), "Country unknown")
}

func TestAdvisorQuestion_Prompt(t *testing.T) {
	assert.Equal(t, "How long?", AdvisorQuestion{Question: "How long?", DocumentType: "passport"}.Prompt())
	assert.Equal(t, "What documents are required to renew a passport (My Passport) that expires on 2027-01-01?",
		AdvisorQuestion{DocumentType: "passport", DocumentName: "My Passport", ExpiryDate: "2027-01-01"}.Prompt())
	assert.Equal(t, "What documents are required to renew a permit?", AdvisorQuestion{DocumentType: "permit"}.Prompt())
}

func TestAdvise(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content.(string), "- Passport (passport): expires on 2030-01-01")
		_, _ = w.Write([]byte(contentReply("Bring two photos.")))
	})
	out, err := c.Advise(context.Background(), AdvisorQuestion{Question: "What do I need?"},
		[]AdvisorDocument{{Name: "Passport", DocumentType: "passport", ExpiryDate: "2030-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, "Bring two photos.", out)

	_, err = c.Advise(context.Background(), AdvisorQuestion{}, nil)
	assert.Error(t, err)
	assert.Contains(t, advisorSystemPrompt(nil), "No documents yet")
}
