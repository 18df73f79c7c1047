package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

var profileRowColumns = []string{
	"id", "user_id", "display_name", "email", "country",
	"email_notifications_enabled", "push_notifications_enabled", "expiry_reminders_enabled",
	"renewal_reminders_enabled", "weekly_digest_enabled", "created_at", "updated_at",
}

func TestProfilePostgres_FindByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProfilePostgres(db)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id = ?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileRowColumns).
			AddRow("p-1", "user-1", "Jane", "jane@example.com", "Indonesia", true, false, true, true, false, now, now))

	p, err := repo.FindByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Indonesia", *p.Country)
	assert.False(t, p.PushNotificationsEnabled)

	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WithArgs("user-2").
		WillReturnError(sql.ErrNoRows)

	p, err = repo.FindByUserID(context.Background(), "user-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfilePostgres_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	p := model.NewProfile("user-1")
	p.ID = "p-1"
	p.Country = strPtr("Japan")
	p.CreatedAt, p.UpdatedAt = now, now

	mock.ExpectQuery("INSERT INTO profiles (.+) ON CONFLICT \\(user_id\\) DO UPDATE SET").
		WithArgs("p-1", "user-1", nil, nil, "Japan", true, true, true, true, false, now, now).
		WillReturnRows(sqlmock.NewRows(profileRowColumns).
			AddRow("p-1", "user-1", nil, nil, "Japan", true, true, true, true, false, now, now))

	out, err := NewProfilePostgres(db).Upsert(context.Background(), &p)

	assert.NoError(t, err)
	assert.Equal(t, "Japan", *out.Country)
	assert.Nil(t, out.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAuditPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()
	changes := json.RawMessage(`{"category":"bug","feedback":"broken"}`)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a-1", "user-1", "user_feedback", "feedback", nil, string(changes), nil, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx, &model.AuditLog{
		ID:         "a-1",
		UserID:     "user-1",
		Action:     "user_feedback",
		EntityType: "feedback",
		Changes:    changes,
		CreatedAt:  now,
	})
	assert.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a-2", "user-1", "document_deleted", "document", "doc-1", nil, nil, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(ctx, &model.AuditLog{
		ID:         "a-2",
		UserID:     "user-1",
		Action:     "document_deleted",
		EntityType: "document",
		DocumentID: strPtr("doc-1"),
		CreatedAt:  now,
	})
	assert.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs WHERE user_id = ?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM audit_logs WHERE user_id = (.+) LIMIT").
		WithArgs("user-1", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "entity_type", "document_id", "changes", "ip_address", "user_agent", "created_at"}).
			AddRow("a-2", "user-1", "document_deleted", "document", "doc-1", nil, nil, nil, now).
			AddRow("a-1", "user-1", "user_feedback", "feedback", nil, []byte(changes), "10.0.0.1", "curl", now))

	res, err := repo.ListByUser(ctx, "user-1", repository.PageQuery{Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.Nil(t, res.Items[0].Changes)
	assert.JSONEq(t, string(changes), string(res.Items[1].Changes))
	assert.Equal(t, "10.0.0.1", *res.Items[1].IPAddress)
	assert.NoError(t, mock.ExpectationsWereMet())
}
