package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"doctrack/internal/database"
	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, user_id, organization_id, name, document_type, issuing_authority,
		expiry_date, renewal_period_days, notes, image_path, created_at, updated_at`

// documentOrder maps each supported sort to a fixed ORDER BY clause.
var documentOrder = map[repository.DocumentSort]string{
	"":                          "created_at DESC, id DESC",
	repository.SortCreatedAt:    "created_at DESC, id DESC",
	repository.SortName:         "name ASC, id ASC",
	repository.SortExpiryDate:   "expiry_date ASC, id ASC",
	repository.SortDocumentType: "document_type ASC, name ASC, id ASC",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.UserID,
		&d.OrganizationID,
		&d.Name,
		&d.DocumentType,
		&d.IssuingAuthority,
		&d.ExpiryDate,
		&d.RenewalPeriodDays,
		&d.Notes,
		&d.ImagePath,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	return insertDocument(ctx, r.db, doc)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertDocument(ctx context.Context, q queryRower, doc *model.Document) (*model.Document, error) {
	query := `
		INSERT INTO documents (id, user_id, organization_id, name, document_type, issuing_authority,
			expiry_date, renewal_period_days, notes, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns
	row := q.QueryRowContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.OrganizationID,
		doc.Name,
		doc.DocumentType,
		doc.IssuingAuthority,
		doc.ExpiryDate,
		doc.RenewalPeriodDays,
		doc.Notes,
		doc.ImagePath,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// BulkCreate inserts all documents inside one transaction; any failure rolls back the batch.
func (r *DocumentPostgres) BulkCreate(ctx context.Context, docs []model.Document) ([]model.Document, error) {
	out := make([]model.Document, 0, len(docs))
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for i := range docs {
			stored, err := insertDocument(ctx, tx, &docs[i])
			if err != nil {
				return fmt.Errorf("insert document %d: %w", i, err)
			}
			out = append(out, *stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, query, id))
}

// ListAccessible returns the caller's own documents plus those shared with its organizations.
func (r *DocumentPostgres) ListAccessible(ctx context.Context, userID string, f repository.DocumentFilter) ([]model.Document, error) {
	order, ok := documentOrder[f.Sort]
	if !ok {
		return nil, fmt.Errorf("unsupported sort %q", f.Sort)
	}
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE (user_id = $1 OR organization_id IN (
				SELECT organization_id FROM organization_members WHERE user_id = $1))
		  AND ($2::text = '' OR name ILIKE '%' || $2 || '%' OR issuing_authority ILIKE '%' || $2 || '%')
		  AND ($3::text = '' OR document_type = $3)
		ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, query, userID, f.Search, string(f.Type))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update overwrites the mutable fields of the document and returns the stored row.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	query := `
		UPDATE documents
		SET organization_id = $2, name = $3, document_type = $4, issuing_authority = $5,
			expiry_date = $6, renewal_period_days = $7, notes = $8, image_path = $9, updated_at = $10
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, query,
		doc.ID,
		doc.OrganizationID,
		doc.Name,
		doc.DocumentType,
		doc.IssuingAuthority,
		doc.ExpiryDate,
		doc.RenewalPeriodDays,
		doc.Notes,
		doc.ImagePath,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
