package repository

import (
	"context"

	"doctrack/internal/model"
)

// ProfileRepository defines data access for user profiles.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// Upsert inserts the profile or updates the existing row for the same user.
	Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Append(ctx context.Context, l *model.AuditLog) error
	ListByUser(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.AuditLog], error)
}
