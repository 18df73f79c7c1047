package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// Dispatcher schedules local push notifications for a user's pending reminders.
// It never marks reminders as sent; only the reminder email job does that.
type Dispatcher struct {
	profiles  repository.ProfileRepository
	reminders repository.ReminderRepository
	pub       Publisher
	queue     string
	log       *slog.Logger
}

// NewDispatcher builds a Dispatcher publishing on queue.
func NewDispatcher(profiles repository.ProfileRepository, reminders repository.ReminderRepository, pub Publisher, queue string, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		profiles:  profiles,
		reminders: reminders,
		pub:       pub,
		queue:     queue,
		log:       log.With("component", "notify"),
	}
}

// Dispatch hands every future unsent reminder of userID to the notification bridge
// and returns how many were scheduled. Users without a profile, or with push or
// expiry reminders turned off, get nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, now time.Time) (int, error) {
	profile, err := d.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load profile: %w", err)
	}
	if !profile.PushNotificationsEnabled || !profile.ExpiryRemindersEnabled {
		return 0, nil
	}

	pending, err := d.reminders.ListPending(ctx, userID, model.Today(now))
	if err != nil {
		return 0, fmt.Errorf("list pending reminders: %w", err)
	}

	scheduled := 0
	for _, r := range pending {
		delay := SecondsUntil(r.ReminderDate.Time, now)
		if delay <= 0 {
			continue
		}
		msg := LocalNotification{
			UserID:       userID,
			ReminderID:   r.ID,
			DocumentID:   r.DocumentID,
			DelaySeconds: delay,
			Title:        fmt.Sprintf("Document Reminder: %s", r.DocumentType),
			Message:      fmt.Sprintf("Your %s requires attention", r.DocumentName),
			URL:          DocumentURL(r.DocumentID),
		}
		if err := d.pub.Publish(ctx, d.queue, msg); err != nil {
			d.log.Error("notification_schedule_failed",
				"user_id", userID,
				"reminder_id", r.ID,
				"error", err.Error(),
			)
			return scheduled, fmt.Errorf("schedule reminder %s: %w", r.ID, err)
		}
		scheduled++
	}

	d.log.Info("notifications_scheduled", "user_id", userID, "count", scheduled)
	return scheduled, nil
}
