package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/expiry"
	"doctrack/internal/model"
	"doctrack/internal/realtime"
	"doctrack/internal/reminder"
	"doctrack/internal/repository"
	"doctrack/internal/storage"
)

// ImageURLExpiry is the lifetime of presigned image URLs.
const ImageURLExpiry = 15 * time.Minute

// DocumentInput is the create/update request shape of a document.
type DocumentInput struct {
	Name              string             `json:"name" validate:"required,max=200"`
	DocumentType      model.DocumentType `json:"document_type" validate:"required,oneof=license passport permit insurance certification other"`
	IssuingAuthority  *string            `json:"issuing_authority" validate:"omitempty,max=200"`
	ExpiryDate        model.Date         `json:"expiry_date"`
	RenewalPeriodDays *int               `json:"renewal_period_days" validate:"omitempty,min=1,max=365"`
	Notes             *string            `json:"notes" validate:"omitempty,max=2000"`
	OrganizationID    *string            `json:"organization_id" validate:"omitempty,uuid"`
	// CustomReminderDate adds one user-chosen reminder on top of the computed stages.
	CustomReminderDate *model.Date `json:"custom_reminder_date"`
}

func (in *DocumentInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.ExpiryDate.IsZero() {
		return invalid("expiry_date is required")
	}
	return nil
}

// ListQuery holds the list parameters accepted by DocumentService.List.
type ListQuery struct {
	Search string
	Type   string
	Status string
	Sort   string
}

// DocumentListResult is the service-level DTO for document listings.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create stores a document, records its history and schedules its reminders.
	// When reminders cannot be stored the document is deleted again.
	Create(ctx context.Context, userID string, in DocumentInput) (*model.Document, error)

	// BulkCreate stores several documents at once with the default renewal period.
	BulkCreate(ctx context.Context, userID string, in []DocumentInput) ([]model.Document, error)

	Get(ctx context.Context, userID, id string) (*model.Document, error)

	// List returns the documents visible to userID, filtered and sorted.
	List(ctx context.Context, userID string, q ListQuery) (*DocumentListResult, error)

	// Stats counts the visible documents per expiry status.
	Stats(ctx context.Context, userID string) (*expiry.Stats, error)

	// Update overwrites a document and regenerates its reminders.
	Update(ctx context.Context, userID, id string, in DocumentInput) (*model.Document, error)

	// Delete removes a document with its stored image.
	Delete(ctx context.Context, userID, id string) error

	// AttachImage uploads an image of the document and stores its reference.
	AttachImage(ctx context.Context, userID, id string, r io.Reader, contentType string, size int64) (*model.Document, error)

	// ImageURL returns a presigned download URL of the document image.
	ImageURL(ctx context.Context, userID, id string) (string, error)

	// OpenImage streams the document image.
	OpenImage(ctx context.Context, userID, id string) (io.ReadCloser, storage.ObjectInfo, error)

	Reminders(ctx context.Context, userID, id string) ([]model.Reminder, error)
	History(ctx context.Context, userID, id string) ([]model.DocumentHistory, error)
}

// DocumentDeps groups the collaborators of the document service.
type DocumentDeps struct {
	Documents     repository.DocumentRepository
	Reminders     repository.ReminderRepository
	History       repository.HistoryRepository
	Organizations repository.OrganizationRepository
	Audit         repository.AuditRepository
	Store         storage.Storage
	Events        realtime.Publisher
	Now           Clock
	Log           *slog.Logger
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	docs    repository.DocumentRepository
	rems    repository.ReminderRepository
	history repository.HistoryRepository
	orgs    repository.OrganizationRepository
	store   storage.Storage
	events  realtime.Publisher
	audit   auditor
	now     Clock
	log     *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d DocumentDeps) DocumentService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Events == nil {
		d.Events = realtime.Discard{}
	}
	return &documentService{
		docs:    d.Documents,
		rems:    d.Reminders,
		history: d.History,
		orgs:    d.Organizations,
		store:   d.Store,
		events:  d.Events,
		audit:   newAuditor(d.Audit, d.Now, d.Log),
		now:     d.Now,
		log:     d.Log.With("component", "document_service"),
	}
}

func (s *documentService) Create(ctx context.Context, userID string, in DocumentInput) (*model.Document, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.OrganizationID != nil {
		if err := s.requireOrgEditor(ctx, *in.OrganizationID, userID); err != nil {
			return nil, err
		}
	}

	doc := newDocument(userID, in, s.now().UTC())
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.appendHistory(ctx, stored, model.HistoryCreated, nil)

	if err := s.scheduleReminders(ctx, stored, in.CustomReminderDate); err != nil {
		// Compensate so no document is left without its reminders.
		if delErr := s.docs.Delete(ctx, stored.ID); delErr != nil {
			return nil, fmt.Errorf("schedule reminders: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	s.publish(ctx, stored, realtime.EventInsert)
	s.audit.record(ctx, userID, "create", "document", &stored.ID, map[string]any{"name": stored.Name, "document_type": stored.DocumentType})
	return stored, nil
}

func (s *documentService) BulkCreate(ctx context.Context, userID string, in []DocumentInput) ([]model.Document, error) {
	if len(in) == 0 {
		return nil, invalid("at least one document is required")
	}
	docs := make([]model.Document, 0, len(in))
	for i := range in {
		period := model.DefaultRenewalPeriodDays
		in[i].RenewalPeriodDays = &period
		if err := in[i].validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if in[i].OrganizationID != nil {
			if err := s.requireOrgEditor(ctx, *in[i].OrganizationID, userID); err != nil {
				return nil, err
			}
		}
		docs = append(docs, *newDocument(userID, in[i], s.now().UTC()))
	}

	stored, err := s.docs.BulkCreate(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("bulk create documents: %w", err)
	}
	for i := range stored {
		doc := &stored[i]
		s.appendHistory(ctx, doc, model.HistoryCreated, nil)
		if err := s.scheduleReminders(ctx, doc, nil); err != nil {
			err = fmt.Errorf("schedule reminders for %s: %w", doc.ID, err)
			// Roll back the whole batch, not just the failed document.
			if delErr := s.deleteBatch(ctx, stored); delErr != nil {
				return nil, fmt.Errorf("%v; rollback delete failed: %v", err, delErr)
			}
			return nil, err
		}
	}
	for i := range stored {
		s.publish(ctx, &stored[i], realtime.EventInsert)
	}
	s.audit.record(ctx, userID, "create", "document", nil, map[string]any{"bulk": len(stored)})
	return stored, nil
}

// deleteBatch removes every stored document of a failed bulk create. Reminders
// and history rows go with them through the foreign key cascade.
func (s *documentService) deleteBatch(ctx context.Context, docs []model.Document) error {
	var errs []error
	for i := range docs {
		if err := s.docs.Delete(ctx, docs[i].ID); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", docs[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *documentService) Get(ctx context.Context, userID, id string) (*model.Document, error) {
	doc, _, err := s.load(ctx, userID, id)
	return doc, err
}

func (s *documentService) List(ctx context.Context, userID string, q ListQuery) (*DocumentListResult, error) {
	f := repository.DocumentFilter{
		Search: strings.TrimSpace(q.Search),
		Sort:   repository.DocumentSort(q.Sort),
	}
	if !f.Sort.Valid() {
		return nil, invalid("unsupported sort %q", q.Sort)
	}
	if q.Type != "" && q.Type != "all" {
		f.Type = model.DocumentType(q.Type)
		if !f.Type.Valid() {
			return nil, invalid("unsupported document type %q", q.Type)
		}
	}

	docs, err := s.docs.ListAccessible(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if q.Status != "" && q.Status != "all" {
		status, ok := expiry.ParseStatus(q.Status)
		if !ok {
			return nil, invalid("unsupported status %q", q.Status)
		}
		docs = expiry.Filter(docs, status, s.now())
	}
	return &DocumentListResult{Items: docs, Total: len(docs)}, nil
}

func (s *documentService) Stats(ctx context.Context, userID string) (*expiry.Stats, error) {
	docs, err := s.docs.ListAccessible(ctx, userID, repository.DocumentFilter{})
	if err != nil {
		return nil, err
	}
	stats := expiry.Summarize(docs, s.now())
	return &stats, nil
}

func (s *documentService) Update(ctx context.Context, userID, id string, in DocumentInput) (*model.Document, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, role, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, ErrForbidden
	}
	if !sameOrg(in.OrganizationID, current.OrganizationID) {
		// Only the owner or an admin of the current org may move the document.
		if role != model.RoleAdmin {
			return nil, ErrForbidden
		}
		if in.OrganizationID != nil {
			if err := s.requireOrgEditor(ctx, *in.OrganizationID, userID); err != nil {
				return nil, err
			}
		}
	}

	next := *current
	next.Name = in.Name
	next.DocumentType = in.DocumentType
	next.IssuingAuthority = in.IssuingAuthority
	next.ExpiryDate = in.ExpiryDate
	next.RenewalPeriodDays = in.RenewalPeriodDays
	next.Notes = in.Notes
	next.OrganizationID = in.OrganizationID
	next.UpdatedAt = s.now().UTC()

	stored, err := s.docs.Update(ctx, &next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}

	action := model.HistoryUpdated
	if stored.ExpiryDate.After(current.ExpiryDate) {
		action = model.HistoryRenewed
	}
	old := current.ExpiryDate
	s.appendHistory(ctx, stored, action, &old)

	if err := s.scheduleReminders(ctx, stored, in.CustomReminderDate); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	s.publish(ctx, stored, realtime.EventUpdate)
	s.audit.record(ctx, userID, "update", "document", &stored.ID, map[string]any{
		"old_expiry_date": old.String(),
		"new_expiry_date": stored.ExpiryDate.String(),
	})
	return stored, nil
}

// Delete removes the stored image first; if that fails the row is kept so the
// image reference is not lost.
func (s *documentService) Delete(ctx context.Context, userID, id string) error {
	doc, role, err := s.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if doc.UserID != userID && role != model.RoleAdmin {
		return ErrForbidden
	}
	if doc.ImagePath != nil && *doc.ImagePath != "" {
		if err := s.store.Delete(ctx, *doc.ImagePath); err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.publish(ctx, doc, realtime.EventDelete)
	s.audit.record(ctx, userID, "delete", "document", nil, map[string]any{"document_id": doc.ID, "name": doc.Name})
	return nil
}

func (s *documentService) AttachImage(ctx context.Context, userID, id string, r io.Reader, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	doc, role, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, ErrForbidden
	}
	key, err := storage.ImageKey(doc.UserID, doc.ID, uuid.New().String(), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	obj, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"document-id": doc.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	previous := doc.ImagePath
	next := *doc
	next.ImagePath = &obj.Key
	next.UpdatedAt = s.now().UTC()
	stored, err := s.docs.Update(ctx, &next)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	if previous != nil && *previous != "" && *previous != obj.Key {
		if err := s.store.Delete(ctx, *previous); err != nil {
			s.log.Warn("previous_image_delete_failed", "document_id", doc.ID, "key", *previous, "error", err.Error())
		}
	}
	s.publish(ctx, stored, realtime.EventUpdate)
	return stored, nil
}

func (s *documentService) ImageURL(ctx context.Context, userID, id string) (string, error) {
	doc, _, err := s.load(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if doc.ImagePath == nil || *doc.ImagePath == "" {
		return "", ErrNoImage
	}
	return s.store.PresignGet(ctx, *doc.ImagePath, ImageURLExpiry)
}

func (s *documentService) OpenImage(ctx context.Context, userID, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	doc, _, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	if doc.ImagePath == nil || *doc.ImagePath == "" {
		return nil, storage.ObjectInfo{}, ErrNoImage
	}
	rc, info, err := s.store.Get(ctx, *doc.ImagePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, storage.ObjectInfo{}, ErrNoImage
	}
	return rc, info, err
}

func (s *documentService) Reminders(ctx context.Context, userID, id string) ([]model.Reminder, error) {
	if _, _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.rems.ListByDocument(ctx, id)
}

func (s *documentService) History(ctx context.Context, userID, id string) ([]model.DocumentHistory, error) {
	if _, _, err := s.load(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.history.ListByDocument(ctx, id)
}

// load fetches a document visible to userID with the caller's effective role.
// Owners act as admins; documents neither owned nor shared are reported as not found.
func (s *documentService) load(ctx context.Context, userID, id string) (*model.Document, model.Role, error) {
	if id == "" {
		return nil, "", ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if doc.UserID == userID {
		return doc, model.RoleAdmin, nil
	}
	if doc.OrganizationID == nil {
		return nil, "", ErrNotFound
	}
	role, err := s.orgs.MemberRole(ctx, *doc.OrganizationID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return doc, role, nil
}

func (s *documentService) requireOrgEditor(ctx context.Context, orgID, userID string) error {
	role, err := s.orgs.MemberRole(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if !role.CanEdit() {
		return ErrForbidden
	}
	return nil
}

func (s *documentService) scheduleReminders(ctx context.Context, doc *model.Document, custom *model.Date) error {
	var rems []model.Reminder
	if doc.CanScheduleReminders() {
		stages := reminder.Schedule(doc.ExpiryDate, *doc.RenewalPeriodDays, custom)
		rems = reminder.Reminders(*doc, stages)
	}
	now := s.now().UTC()
	for i := range rems {
		rems[i].ID = uuid.New().String()
		rems[i].CreatedAt = now
	}
	return s.rems.Replace(ctx, doc.ID, rems)
}

func (s *documentService) appendHistory(ctx context.Context, doc *model.Document, action model.HistoryAction, old *model.Date) {
	next := doc.ExpiryDate
	h := &model.DocumentHistory{
		ID:            uuid.New().String(),
		DocumentID:    doc.ID,
		UserID:        doc.UserID,
		Action:        action,
		OldExpiryDate: old,
		NewExpiryDate: &next,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.history.Append(ctx, h); err != nil {
		s.log.Error("history_append_failed", "document_id", doc.ID, "action", string(action), "error", err.Error())
	}
}

func (s *documentService) publish(ctx context.Context, doc *model.Document, t realtime.EventType) {
	ev := realtime.ChangeEvent{Type: t, DocumentID: doc.ID, At: s.now().UTC()}
	if err := s.events.Publish(ctx, doc.UserID, ev); err != nil {
		s.log.Warn("change_event_publish_failed", "document_id", doc.ID, "type", string(t), "error", err.Error())
	}
}

func newDocument(userID string, in DocumentInput, now time.Time) *model.Document {
	return &model.Document{
		ID:                uuid.New().String(),
		UserID:            userID,
		OrganizationID:    in.OrganizationID,
		Name:              in.Name,
		DocumentType:      in.DocumentType,
		IssuingAuthority:  in.IssuingAuthority,
		ExpiryDate:        in.ExpiryDate,
		RenewalPeriodDays: in.RenewalPeriodDays,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func sameOrg(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
