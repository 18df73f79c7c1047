package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/model"
	"doctrack/internal/service"
)

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, userID string, in service.ProfileInput) (*model.Profile, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Create(ctx context.Context, userID string, in service.OrganizationInput) (*model.Organization, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationService) List(ctx context.Context, userID string) ([]model.Organization, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Organization), args.Error(1)
}

func (m *MockOrganizationService) Delete(ctx context.Context, userID, orgID string) error {
	args := m.Called(ctx, userID, orgID)
	return args.Error(0)
}

func (m *MockOrganizationService) Members(ctx context.Context, userID, orgID string) ([]model.OrganizationMember, error) {
	args := m.Called(ctx, userID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationService) AddMember(ctx context.Context, userID, orgID string, in service.MemberInput) (*model.OrganizationMember, error) {
	args := m.Called(ctx, userID, orgID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationService) UpdateMemberRole(ctx context.Context, userID, orgID, memberID string, in service.RoleInput) (*model.OrganizationMember, error) {
	args := m.Called(ctx, userID, orgID, memberID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationService) RemoveMember(ctx context.Context, userID, orgID, memberID string) error {
	args := m.Called(ctx, userID, orgID, memberID)
	return args.Error(0)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Feedback(ctx context.Context, userID string, in service.FeedbackInput) error {
	args := m.Called(ctx, userID, in)
	return args.Error(0)
}

func (m *MockAuditService) List(ctx context.Context, userID string, limit, offset int) (*service.AuditListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditListResult), args.Error(1)
}

type MockAdvisoryService struct {
	mock.Mock
}

func (m *MockAdvisoryService) Analyze(ctx context.Context, userID string, in service.AnalyzeInput) (*service.AnalysisResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisResult), args.Error(1)
}

func (m *MockAdvisoryService) Scan(ctx context.Context, userID string, in service.ScanInput) (*service.ScanResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func (m *MockAdvisoryService) Advise(ctx context.Context, userID string, in service.AdvisorInput) (*service.AdvisorResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdvisorResult), args.Error(1)
}
