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

// ProfileInput is the update request of a profile. Nil toggles keep their value.
type ProfileInput struct {
	DisplayName               *string `json:"display_name" validate:"omitempty,max=100"`
	Email                     *string `json:"email" validate:"omitempty,email,max=255"`
	Country                   *string `json:"country" validate:"omitempty,max=100"`
	EmailNotificationsEnabled *bool   `json:"email_notifications_enabled"`
	PushNotificationsEnabled  *bool   `json:"push_notifications_enabled"`
	ExpiryRemindersEnabled    *bool   `json:"expiry_reminders_enabled"`
	RenewalRemindersEnabled   *bool   `json:"renewal_reminders_enabled"`
	WeeklyDigestEnabled       *bool   `json:"weekly_digest_enabled"`
}

// ProfileService manages the caller's profile.
type ProfileService interface {
	// Get returns the caller's profile, creating the signup default on first read.
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error)
}

type profileService struct {
	repo  repository.ProfileRepository
	audit auditor
	now   Clock
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo repository.ProfileRepository, audit repository.AuditRepository, now Clock, log *slog.Logger) ProfileService {
	if now == nil {
		now = time.Now
	}
	return &profileService{repo: repo, audit: newAuditor(audit, now, log), now: now}
}

func (s *profileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	fresh := model.NewProfile(userID)
	fresh.ID = uuid.New().String()
	fresh.CreatedAt = s.now().UTC()
	fresh.UpdatedAt = fresh.CreatedAt
	return s.repo.Upsert(ctx, &fresh)
}

func (s *profileService) Update(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := *p
	if in.DisplayName != nil {
		next.DisplayName = optional(strings.TrimSpace(*in.DisplayName))
	}
	if in.Email != nil {
		next.Email = optional(strings.TrimSpace(*in.Email))
	}
	if in.Country != nil {
		next.Country = optional(strings.TrimSpace(*in.Country))
	}
	setBool(&next.EmailNotificationsEnabled, in.EmailNotificationsEnabled)
	setBool(&next.PushNotificationsEnabled, in.PushNotificationsEnabled)
	setBool(&next.ExpiryRemindersEnabled, in.ExpiryRemindersEnabled)
	setBool(&next.RenewalRemindersEnabled, in.RenewalRemindersEnabled)
	setBool(&next.WeeklyDigestEnabled, in.WeeklyDigestEnabled)
	next.UpdatedAt = s.now().UTC()

	stored, err := s.repo.Upsert(ctx, &next)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, "update", "profile", nil, in)
	return stored, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
