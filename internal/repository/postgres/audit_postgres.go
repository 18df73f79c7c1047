package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// Append inserts an audit log row.
func (r *AuditPostgres) Append(ctx context.Context, l *model.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (id, user_id, action, entity_type, document_id, changes, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, q,
		l.ID,
		l.UserID,
		l.Action,
		l.EntityType,
		l.DocumentID,
		jsonArg(l.Changes),
		l.IPAddress,
		l.UserAgent,
		l.CreatedAt,
	)
	return err
}

// jsonArg passes raw JSON as text so the driver casts it to jsonb; empty becomes NULL.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// ListByUser returns a page of the user's audit logs, newest first, with the total count.
func (r *AuditPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.AuditLog], error) {
	const qCount = `SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, user_id, action, entity_type, document_id, changes, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLog, 0)
	for rows.Next() {
		var (
			l       model.AuditLog
			changes []byte
		)
		if err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Action,
			&l.EntityType,
			&l.DocumentID,
			&changes,
			&l.IPAddress,
			&l.UserAgent,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			l.Changes = json.RawMessage(changes)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditLog]{
		Items: items,
		Total: total,
	}, nil
}
