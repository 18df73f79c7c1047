package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doctrack/internal/database"
	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// ReminderPostgres is a PostgreSQL implementation of repository.ReminderRepository.
type ReminderPostgres struct {
	db *sql.DB
}

// NewReminderPostgres creates a new ReminderPostgres repository.
func NewReminderPostgres(db *sql.DB) *ReminderPostgres {
	return &ReminderPostgres{db: db}
}

var _ repository.ReminderRepository = (*ReminderPostgres)(nil)

const reminderColumns = `r.id, r.document_id, r.user_id, r.reminder_date, r.is_sent, r.is_custom, r.created_at`

// Replace swaps the full reminder set of a document inside one transaction.
func (r *ReminderPostgres) Replace(ctx context.Context, documentID string, reminders []model.Reminder) error {
	const ins = `
		INSERT INTO reminders (id, document_id, user_id, reminder_date, is_sent, is_custom, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE document_id = $1`, documentID); err != nil {
			return fmt.Errorf("delete reminders: %w", err)
		}
		for _, rem := range reminders {
			if _, err := tx.ExecContext(ctx, ins,
				rem.ID,
				documentID,
				rem.UserID,
				rem.ReminderDate,
				rem.IsSent,
				rem.IsCustom,
				rem.CreatedAt,
			); err != nil {
				return fmt.Errorf("insert reminder: %w", err)
			}
		}
		return nil
	})
}

// ListByDocument returns the reminders of a document ordered by date.
func (r *ReminderPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Reminder, error) {
	query := `SELECT ` + reminderColumns + `
		FROM reminders r
		WHERE r.document_id = $1
		ORDER BY r.reminder_date ASC, r.is_custom ASC`
	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Reminder, 0)
	for rows.Next() {
		var rem model.Reminder
		if err := scanReminder(rows, &rem); err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanReminder(s rowScanner, rem *model.Reminder, extra ...any) error {
	dest := []any{
		&rem.ID,
		&rem.DocumentID,
		&rem.UserID,
		&rem.ReminderDate,
		&rem.IsSent,
		&rem.IsCustom,
		&rem.CreatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}

// ListPending returns unsent reminders of a user dated on or after from.
func (r *ReminderPostgres) ListPending(ctx context.Context, userID string, from model.Date) ([]model.PendingReminder, error) {
	query := `SELECT ` + reminderColumns + `, d.name, d.document_type
		FROM reminders r
		JOIN documents d ON d.id = r.document_id
		WHERE r.user_id = $1 AND r.is_sent = false AND r.reminder_date >= $2
		ORDER BY r.reminder_date ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PendingReminder, 0)
	for rows.Next() {
		var p model.PendingReminder
		if err := scanReminder(rows, &p.Reminder, &p.DocumentName, &p.DocumentType); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListDue returns unsent reminders dated on the given day with their document and owner profile.
// Reminders whose owner has no profile row are still returned with a zero profile.
func (r *ReminderPostgres) ListDue(ctx context.Context, on model.Date) ([]model.DueReminder, error) {
	query := `SELECT ` + reminderColumns + `,
			d.id, d.user_id, d.name, d.document_type, d.expiry_date, d.renewal_period_days,
			p.email, p.display_name,
			COALESCE(p.email_notifications_enabled, false),
			COALESCE(p.expiry_reminders_enabled, false)
		FROM reminders r
		JOIN documents d ON d.id = r.document_id
		LEFT JOIN profiles p ON p.user_id = r.user_id
		WHERE r.reminder_date = $1 AND r.is_sent = false
		ORDER BY r.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, on)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DueReminder, 0)
	for rows.Next() {
		var due model.DueReminder
		if err := scanReminder(rows, &due.Reminder,
			&due.Document.ID,
			&due.Document.UserID,
			&due.Document.Name,
			&due.Document.DocumentType,
			&due.Document.ExpiryDate,
			&due.Document.RenewalPeriodDays,
			&due.Profile.Email,
			&due.Profile.DisplayName,
			&due.Profile.EmailNotificationsEnabled,
			&due.Profile.ExpiryRemindersEnabled,
		); err != nil {
			return nil, err
		}
		due.Profile.UserID = due.UserID
		items = append(items, due)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSent flips the sent flag of a reminder. A missing row yields sql.ErrNoRows.
func (r *ReminderPostgres) MarkSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET is_sent = true WHERE id = $1`, id)
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

// HistoryPostgres is a PostgreSQL implementation of repository.HistoryRepository.
type HistoryPostgres struct {
	db *sql.DB
}

// NewHistoryPostgres creates a new HistoryPostgres repository.
func NewHistoryPostgres(db *sql.DB) *HistoryPostgres {
	return &HistoryPostgres{db: db}
}

var _ repository.HistoryRepository = (*HistoryPostgres)(nil)

// Append inserts a history entry.
func (r *HistoryPostgres) Append(ctx context.Context, h *model.DocumentHistory) error {
	const q = `
		INSERT INTO document_history (id, document_id, user_id, action, old_expiry_date, new_expiry_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, q,
		h.ID,
		h.DocumentID,
		h.UserID,
		h.Action,
		h.OldExpiryDate,
		h.NewExpiryDate,
		h.Notes,
		h.CreatedAt,
	)
	return err
}

// ListByDocument returns the history of a document, newest first.
func (r *HistoryPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.DocumentHistory, error) {
	const q = `
		SELECT id, document_id, user_id, action, old_expiry_date, new_expiry_date, notes, created_at
		FROM document_history
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentHistory, 0)
	for rows.Next() {
		var h model.DocumentHistory
		if err := rows.Scan(
			&h.ID,
			&h.DocumentID,
			&h.UserID,
			&h.Action,
			&h.OldExpiryDate,
			&h.NewExpiryDate,
			&h.Notes,
			&h.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
