package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/ai"
)

type MockAdvisor struct {
	mock.Mock
}

func (m *MockAdvisor) Analyze(ctx context.Context, t ai.AnalysisType, doc ai.DocumentInput, country string) (json.RawMessage, error) {
	args := m.Called(ctx, t, doc, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockAdvisor) Suggest(ctx context.Context, docs []ai.DocumentInput) (*ai.Suggestions, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Suggestions), args.Error(1)
}

func (m *MockAdvisor) Scan(ctx context.Context, imageDataURL, country string) (*ai.ScanResult, error) {
	args := m.Called(ctx, imageDataURL, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.ScanResult), args.Error(1)
}

func (m *MockAdvisor) Advise(ctx context.Context, q ai.AdvisorQuestion, docs []ai.AdvisorDocument) (string, error) {
	args := m.Called(ctx, q, docs)
	return args.String(0), args.Error(1)
}
