package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/model"
)

var reminderRowColumns = []string{"id", "document_id", "user_id", "reminder_date", "is_sent", "is_custom", "created_at"}

func TestReminderPostgres_Replace(t *testing.T) {
	now := time.Now().UTC()
	reminders := []model.Reminder{
		{ID: "r-1", UserID: "user-1", ReminderDate: model.NewDate(2027, time.January, 1), CreatedAt: now},
		{ID: "r-2", UserID: "user-1", ReminderDate: model.NewDate(2027, time.February, 1), IsCustom: true, CreatedAt: now},
	}

	t.Run("deletes then inserts in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM reminders WHERE document_id = ?").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec("INSERT INTO reminders").
			WithArgs("r-1", "doc-1", "user-1", reminders[0].ReminderDate.Time, false, false, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO reminders").
			WithArgs("r-2", "doc-1", "user-1", reminders[1].ReminderDate.Time, false, true, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewReminderPostgres(db).Replace(context.Background(), "doc-1", reminders)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM reminders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO reminders").WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		err = NewReminderPostgres(db).Replace(context.Background(), "doc-1", reminders)

		assert.ErrorContains(t, err, "insert reminder: fk violation")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty set only clears", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM reminders").WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		assert.NoError(t, NewReminderPostgres(db).Replace(context.Background(), "doc-1", nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReminderPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM reminders r WHERE r.document_id = ?").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(reminderRowColumns).
			AddRow("r-1", "doc-1", "user-1", day, false, false, day).
			AddRow("r-2", "doc-1", "user-1", day.AddDate(0, 0, 7), false, true, day))

	items, err := NewReminderPostgres(db).ListByDocument(context.Background(), "doc-1")

	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2027-01-08", items[1].ReminderDate.String())
	assert.True(t, items[1].IsCustom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderPostgres_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := model.NewDate(2026, time.October, 16)
	cols := append(append([]string{}, reminderRowColumns...), "name", "document_type")
	mock.ExpectQuery("SELECT (.+) FROM reminders r JOIN documents d (.+) r.is_sent = false AND r.reminder_date >= (.+) ORDER BY r.reminder_date ASC").
		WithArgs("user-1", from.Time).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r-1", "doc-1", "user-1", from.Time.AddDate(0, 0, 3), false, false, from.Time, "Passport", "passport"))

	items, err := NewReminderPostgres(db).ListPending(context.Background(), "user-1", from)

	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Passport", items[0].DocumentName)
	assert.Equal(t, model.DocumentTypePassport, items[0].DocumentType)
	assert.Equal(t, "doc-1", items[0].DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderPostgres_ListDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	on := model.NewDate(2026, time.October, 16)
	cols := append(append([]string{}, reminderRowColumns...),
		"d.id", "d.user_id", "d.name", "d.document_type", "d.expiry_date", "d.renewal_period_days",
		"p.email", "p.display_name", "email_enabled", "expiry_enabled")
	mock.ExpectQuery("SELECT (.+) FROM reminders r JOIN documents d (.+) LEFT JOIN profiles p (.+) WHERE r.reminder_date = (.+) AND r.is_sent = false").
		WithArgs(on.Time).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r-1", "doc-1", "user-1", on.Time, false, false, on.Time,
				"doc-1", "user-1", "Passport", "passport", on.Time.AddDate(0, 0, 30), 90,
				"jane@example.com", nil, true, true).
			AddRow("r-2", "doc-2", "user-2", on.Time, false, false, on.Time,
				"doc-2", "user-2", "Permit", "permit", on.Time.AddDate(0, 0, 7), nil,
				nil, nil, false, false))

	items, err := NewReminderPostgres(db).ListDue(context.Background(), on)

	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Passport", items[0].Document.Name)
	assert.Equal(t, "jane@example.com", *items[0].Profile.Email)
	assert.True(t, items[0].Profile.EmailNotificationsEnabled)
	assert.Equal(t, "user-1", items[0].Profile.UserID)
	assert.Nil(t, items[1].Profile.Email)
	assert.Nil(t, items[1].Document.RenewalPeriodDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderPostgres_MarkSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewReminderPostgres(db)

	mock.ExpectExec("UPDATE reminders SET is_sent = true WHERE id = ?").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkSent(context.Background(), "r-1"))

	mock.ExpectExec("UPDATE reminders SET is_sent = true").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkSent(context.Background(), "missing"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewHistoryPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	oldDate := model.NewDate(2026, time.November, 1)
	newDate := model.NewDate(2031, time.November, 1)

	mock.ExpectExec("INSERT INTO document_history").
		WithArgs("h-1", "doc-1", "user-1", "renewed", oldDate.Time, newDate.Time, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx, &model.DocumentHistory{
		ID:            "h-1",
		DocumentID:    "doc-1",
		UserID:        "user-1",
		Action:        model.HistoryRenewed,
		OldExpiryDate: &oldDate,
		NewExpiryDate: &newDate,
		CreatedAt:     now,
	})
	assert.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM document_history WHERE document_id = ?").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "user_id", "action", "old_expiry_date", "new_expiry_date", "notes", "created_at"}).
			AddRow("h-1", "doc-1", "user-1", "renewed", oldDate.Time, newDate.Time, nil, now).
			AddRow("h-0", "doc-1", "user-1", "created", nil, oldDate.Time, "scanned", now.Add(-time.Hour)))

	items, err := repo.ListByDocument(ctx, "doc-1")
	assert.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.HistoryRenewed, items[0].Action)
	assert.Equal(t, "2031-11-01", items[0].NewExpiryDate.String())
	assert.Nil(t, items[1].OldExpiryDate)
	assert.Equal(t, "scanned", *items[1].Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
