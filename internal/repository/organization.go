package repository

import (
	"context"

	"doctrack/internal/model"
)

// OrganizationRepository defines data access for organizations and their members.
type OrganizationRepository interface {
	// Create inserts the organization and its owner membership in one transaction.
	Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) (*model.Organization, error)
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	ListForUser(ctx context.Context, userID string) ([]model.Organization, error)
	Delete(ctx context.Context, id string) error

	ListMembers(ctx context.Context, orgID string) ([]model.OrganizationMember, error)
	AddMember(ctx context.Context, m *model.OrganizationMember) (*model.OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, orgID, memberID string, role model.Role) (*model.OrganizationMember, error)
	RemoveMember(ctx context.Context, orgID, memberID string) error

	// MemberRole returns the role of userID in orgID, or sql.ErrNoRows when not a member.
	MemberRole(ctx context.Context, orgID, userID string) (model.Role, error)
}
