package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doctrack/internal/model"
)

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) (*model.Organization, error) {
	args := m.Called(ctx, org, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) ListForUser(ctx context.Context, userID string) ([]model.Organization, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrganizationRepository) ListMembers(ctx context.Context, orgID string) ([]model.OrganizationMember, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationRepository) AddMember(ctx context.Context, member *model.OrganizationMember) (*model.OrganizationMember, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationRepository) UpdateMemberRole(ctx context.Context, orgID, memberID string, role model.Role) (*model.OrganizationMember, error) {
	args := m.Called(ctx, orgID, memberID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrganizationMember), args.Error(1)
}

func (m *MockOrganizationRepository) RemoveMember(ctx context.Context, orgID, memberID string) error {
	args := m.Called(ctx, orgID, memberID)
	return args.Error(0)
}

func (m *MockOrganizationRepository) MemberRole(ctx context.Context, orgID, userID string) (model.Role, error) {
	args := m.Called(ctx, orgID, userID)
	return args.Get(0).(model.Role), args.Error(1)
}
