package repository

import (
	"context"

	"doctrack/internal/model"
)

// DocumentSort names a supported list ordering.
type DocumentSort string

const (
	SortCreatedAt    DocumentSort = "created_at"
	SortName         DocumentSort = "name"
	SortExpiryDate   DocumentSort = "expiry_date"
	SortDocumentType DocumentSort = "document_type"
)

// Valid reports whether s is a supported ordering. The empty value means created_at.
func (s DocumentSort) Valid() bool {
	switch s {
	case "", SortCreatedAt, SortName, SortExpiryDate, SortDocumentType:
		return true
	}
	return false
}

// DocumentFilter narrows a document listing. Zero values disable each criterion.
// Status filtering depends on the current date and is applied by the service.
type DocumentFilter struct {
	// Search matches name or issuing authority, case-insensitively.
	Search string
	Type   model.DocumentType
	Sort   DocumentSort
}

// DocumentRepository defines data access for documents using SQL queries only.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// BulkCreate inserts all documents in a single transaction.
	BulkCreate(ctx context.Context, docs []model.Document) ([]model.Document, error)

	// FindByID returns a document by its ID regardless of owner.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListAccessible returns documents owned by userID or shared with one of its organizations.
	ListAccessible(ctx context.Context, userID string, f DocumentFilter) ([]model.Document, error)

	// Update overwrites the mutable fields of a document and returns the stored row.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a document by ID. Reminders and history rows cascade.
	Delete(ctx context.Context, id string) error
}
