package postgres

import (
	"context"
	"database/sql"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// ProfilePostgres is a PostgreSQL implementation of repository.ProfileRepository.
type ProfilePostgres struct {
	db *sql.DB
}

// NewProfilePostgres creates a new ProfilePostgres repository.
func NewProfilePostgres(db *sql.DB) *ProfilePostgres {
	return &ProfilePostgres{db: db}
}

var _ repository.ProfileRepository = (*ProfilePostgres)(nil)

const profileColumns = `id, user_id, display_name, email, country,
		email_notifications_enabled, push_notifications_enabled, expiry_reminders_enabled,
		renewal_reminders_enabled, weekly_digest_enabled, created_at, updated_at`

func scanProfile(s rowScanner) (*model.Profile, error) {
	var p model.Profile
	if err := s.Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Email,
		&p.Country,
		&p.EmailNotificationsEnabled,
		&p.PushNotificationsEnabled,
		&p.ExpiryRemindersEnabled,
		&p.RenewalRemindersEnabled,
		&p.WeeklyDigestEnabled,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByUserID returns the profile of a user.
func (r *ProfilePostgres) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, userID))
}

// Upsert inserts the profile, or updates every mutable field when the user already has one.
func (r *ProfilePostgres) Upsert(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	query := `
		INSERT INTO profiles (id, user_id, display_name, email, country,
			email_notifications_enabled, push_notifications_enabled, expiry_reminders_enabled,
			renewal_reminders_enabled, weekly_digest_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			country = EXCLUDED.country,
			email_notifications_enabled = EXCLUDED.email_notifications_enabled,
			push_notifications_enabled = EXCLUDED.push_notifications_enabled,
			expiry_reminders_enabled = EXCLUDED.expiry_reminders_enabled,
			renewal_reminders_enabled = EXCLUDED.renewal_reminders_enabled,
			weekly_digest_enabled = EXCLUDED.weekly_digest_enabled,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns
	row := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.UserID,
		p.DisplayName,
		p.Email,
		p.Country,
		p.EmailNotificationsEnabled,
		p.PushNotificationsEnabled,
		p.ExpiryRemindersEnabled,
		p.RenewalRemindersEnabled,
		p.WeeklyDigestEnabled,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanProfile(row)
}
