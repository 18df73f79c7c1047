package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// OrganizationInput creates an organization.
type OrganizationInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// MemberInput adds a member to an organization.
type MemberInput struct {
	UserID string     `json:"user_id" validate:"required,uuid"`
	Role   model.Role `json:"role" validate:"required,oneof=admin editor viewer"`
}

// RoleInput changes a member's role.
type RoleInput struct {
	Role model.Role `json:"role" validate:"required,oneof=admin editor viewer"`
}

// OrganizationService manages organizations and their memberships. Membership
// changes are restricted to admins; deleting an organization to its owner.
type OrganizationService interface {
	Create(ctx context.Context, userID string, in OrganizationInput) (*model.Organization, error)
	List(ctx context.Context, userID string) ([]model.Organization, error)
	Delete(ctx context.Context, userID, orgID string) error
	Members(ctx context.Context, userID, orgID string) ([]model.OrganizationMember, error)
	AddMember(ctx context.Context, userID, orgID string, in MemberInput) (*model.OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, userID, orgID, memberID string, in RoleInput) (*model.OrganizationMember, error)
	RemoveMember(ctx context.Context, userID, orgID, memberID string) error
}

type organizationService struct {
	repo  repository.OrganizationRepository
	audit auditor
	now   Clock
}

// NewOrganizationService constructs an OrganizationService.
func NewOrganizationService(repo repository.OrganizationRepository, audit repository.AuditRepository, now Clock, log *slog.Logger) OrganizationService {
	if now == nil {
		now = time.Now
	}
	return &organizationService{repo: repo, audit: newAuditor(audit, now, log), now: now}
}

func (s *organizationService) Create(ctx context.Context, userID string, in OrganizationInput) (*model.Organization, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	org := &model.Organization{
		ID:        uuid.New().String(),
		Name:      in.Name,
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &model.OrganizationMember{
		ID:             uuid.New().String(),
		OrganizationID: org.ID,
		UserID:         userID,
		Role:           model.RoleAdmin,
		CreatedAt:      now,
	}
	stored, err := s.repo.Create(ctx, org, owner)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, "create", "organization", nil, map[string]any{"organization_id": stored.ID, "name": stored.Name})
	return stored, nil
}

func (s *organizationService) List(ctx context.Context, userID string) ([]model.Organization, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *organizationService) Delete(ctx context.Context, userID, orgID string) error {
	if orgID == "" {
		return ErrIDRequired
	}
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if org.OwnerID != userID {
		if _, err := s.role(ctx, orgID, userID); err != nil {
			return err
		}
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, orgID); err != nil {
		return err
	}
	s.audit.record(ctx, userID, "delete", "organization", nil, map[string]any{"organization_id": orgID})
	return nil
}

func (s *organizationService) Members(ctx context.Context, userID, orgID string) ([]model.OrganizationMember, error) {
	if _, err := s.role(ctx, orgID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}

func (s *organizationService) AddMember(ctx context.Context, userID, orgID string, in MemberInput) (*model.OrganizationMember, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, orgID, userID); err != nil {
		return nil, err
	}
	m := &model.OrganizationMember{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		UserID:         in.UserID,
		Role:           in.Role,
		CreatedAt:      s.now().UTC(),
	}
	stored, err := s.repo.AddMember(ctx, m)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, "create", "organization_member", nil, map[string]any{"organization_id": orgID, "user_id": in.UserID, "role": in.Role})
	return stored, nil
}

func (s *organizationService) UpdateMemberRole(ctx context.Context, userID, orgID, memberID string, in RoleInput) (*model.OrganizationMember, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, orgID, userID); err != nil {
		return nil, err
	}
	stored, err := s.repo.UpdateMemberRole(ctx, orgID, memberID, in.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.audit.record(ctx, userID, "update", "organization_member", nil, map[string]any{"member_id": memberID, "role": in.Role})
	return stored, nil
}

func (s *organizationService) RemoveMember(ctx context.Context, userID, orgID, memberID string) error {
	if err := s.requireAdmin(ctx, orgID, userID); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, orgID, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.audit.record(ctx, userID, "delete", "organization_member", nil, map[string]any{"member_id": memberID})
	return nil
}

// role returns the caller's role; non-members see the organization as missing.
func (s *organizationService) role(ctx context.Context, orgID, userID string) (model.Role, error) {
	if orgID == "" {
		return "", ErrIDRequired
	}
	role, err := s.repo.MemberRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return role, nil
}

func (s *organizationService) requireAdmin(ctx context.Context, orgID, userID string) error {
	role, err := s.role(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
