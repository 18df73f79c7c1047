package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doctrack/internal/database"
	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// OrganizationPostgres is a PostgreSQL implementation of repository.OrganizationRepository.
type OrganizationPostgres struct {
	db *sql.DB
}

// NewOrganizationPostgres creates a new OrganizationPostgres repository.
func NewOrganizationPostgres(db *sql.DB) *OrganizationPostgres {
	return &OrganizationPostgres{db: db}
}

var _ repository.OrganizationRepository = (*OrganizationPostgres)(nil)

func scanOrganization(s rowScanner) (*model.Organization, error) {
	var o model.Organization
	if err := s.Scan(&o.ID, &o.Name, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanMember(s rowScanner) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	if err := s.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts the organization and the owner's membership in one transaction.
func (r *OrganizationPostgres) Create(ctx context.Context, org *model.Organization, owner *model.OrganizationMember) (*model.Organization, error) {
	const qOrg = `
		INSERT INTO organizations (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, owner_id, created_at, updated_at
	`
	const qMember = `
		INSERT INTO organization_members (id, organization_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var stored *model.Organization
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		stored, err = scanOrganization(tx.QueryRowContext(ctx, qOrg,
			org.ID, org.Name, org.OwnerID, org.CreatedAt, org.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}
		if _, err := tx.ExecContext(ctx, qMember,
			owner.ID, stored.ID, owner.UserID, owner.Role, owner.CreatedAt); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// FindByID fetches a single organization by its ID.
func (r *OrganizationPostgres) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	const q = `SELECT id, name, owner_id, created_at, updated_at FROM organizations WHERE id = $1`
	return scanOrganization(r.db.QueryRowContext(ctx, q, id))
}

// ListForUser returns organizations where the user holds any membership.
func (r *OrganizationPostgres) ListForUser(ctx context.Context, userID string) ([]model.Organization, error) {
	const q = `
		SELECT o.id, o.name, o.owner_id, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes an organization; memberships cascade and shared documents become private.
func (r *OrganizationPostgres) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	return err
}

// ListMembers returns the members of an organization, oldest first.
func (r *OrganizationPostgres) ListMembers(ctx context.Context, orgID string) ([]model.OrganizationMember, error) {
	const q = `
		SELECT id, organization_id, user_id, role, created_at
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.OrganizationMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// AddMember inserts a membership row.
func (r *OrganizationPostgres) AddMember(ctx context.Context, m *model.OrganizationMember) (*model.OrganizationMember, error) {
	const q = `
		INSERT INTO organization_members (id, organization_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, organization_id, user_id, role, created_at
	`
	return scanMember(r.db.QueryRowContext(ctx, q, m.ID, m.OrganizationID, m.UserID, m.Role, m.CreatedAt))
}

// UpdateMemberRole changes the role of a membership within orgID.
func (r *OrganizationPostgres) UpdateMemberRole(ctx context.Context, orgID, memberID string, role model.Role) (*model.OrganizationMember, error) {
	const q = `
		UPDATE organization_members SET role = $3
		WHERE id = $1 AND organization_id = $2
		RETURNING id, organization_id, user_id, role, created_at
	`
	return scanMember(r.db.QueryRowContext(ctx, q, memberID, orgID, role))
}

// RemoveMember deletes a membership within orgID. A missing row yields sql.ErrNoRows.
func (r *OrganizationPostgres) RemoveMember(ctx context.Context, orgID, memberID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_members WHERE id = $1 AND organization_id = $2`, memberID, orgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MemberRole returns the role of a user within an organization.
func (r *OrganizationPostgres) MemberRole(ctx context.Context, orgID, userID string) (model.Role, error) {
	const q = `SELECT role FROM organization_members WHERE organization_id = $1 AND user_id = $2`
	var role model.Role
	if err := r.db.QueryRowContext(ctx, q, orgID, userID).Scan(&role); err != nil {
		return "", err
	}
	return role, nil
}
