package repository

import (
	"context"

	"doctrack/internal/model"
)

// ReminderRepository defines data access for reminders.
type ReminderRepository interface {
	// Replace deletes every reminder of documentID and inserts the given set.
	Replace(ctx context.Context, documentID string, reminders []model.Reminder) error

	// ListByDocument returns the reminders of a document ordered by date.
	ListByDocument(ctx context.Context, documentID string) ([]model.Reminder, error)

	// ListPending returns unsent reminders of userID dated on or after from, ordered by date.
	ListPending(ctx context.Context, userID string, from model.Date) ([]model.PendingReminder, error)

	// ListDue returns unsent reminders dated exactly on, joined with document and owner profile.
	ListDue(ctx context.Context, on model.Date) ([]model.DueReminder, error)

	// MarkSent flips the sent flag of a reminder.
	MarkSent(ctx context.Context, id string) error
}

// HistoryRepository defines data access for the append-only document history.
type HistoryRepository interface {
	Append(ctx context.Context, h *model.DocumentHistory) error
	ListByDocument(ctx context.Context, documentID string) ([]model.DocumentHistory, error)
}
