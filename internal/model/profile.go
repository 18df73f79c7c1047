package model

import "time"

// Profile holds per-user display settings and notification toggles.
type Profile struct {
	ID                        string    `json:"id"`
	UserID                    string    `json:"user_id"`
	DisplayName               *string   `json:"display_name"`
	Email                     *string   `json:"email"`
	Country                   *string   `json:"country"`
	EmailNotificationsEnabled bool      `json:"email_notifications_enabled"`
	PushNotificationsEnabled  bool      `json:"push_notifications_enabled"`
	ExpiryRemindersEnabled    bool      `json:"expiry_reminders_enabled"`
	RenewalRemindersEnabled   bool      `json:"renewal_reminders_enabled"`
	WeeklyDigestEnabled       bool      `json:"weekly_digest_enabled"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// NewProfile returns the profile a user gets at signup: every channel enabled
// except the weekly digest.
func NewProfile(userID string) Profile {
	return Profile{
		UserID:                    userID,
		EmailNotificationsEnabled: true,
		PushNotificationsEnabled:  true,
		ExpiryRemindersEnabled:    true,
		RenewalRemindersEnabled:   true,
	}
}
