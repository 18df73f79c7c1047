package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// FeedbackInput is a user feedback submission.
type FeedbackInput struct {
	Category string `json:"category" validate:"required,oneof=general bug feature improvement other"`
	Feedback string `json:"feedback" validate:"required,max=5000"`
}

// AuditListResult is a page of audit rows.
type AuditListResult struct {
	Items []model.AuditLog `json:"data"`
	Total int              `json:"total"`
}

// AuditService records user feedback and exposes the caller's audit trail.
type AuditService interface {
	Feedback(ctx context.Context, userID string, in FeedbackInput) error
	List(ctx context.Context, userID string, limit, offset int) (*AuditListResult, error)
}

type auditService struct {
	audit auditor
	repo  repository.AuditRepository
	now   Clock
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo repository.AuditRepository, now Clock, log *slog.Logger) AuditService {
	if now == nil {
		now = time.Now
	}
	return &auditService{audit: newAuditor(repo, now, log), repo: repo, now: now}
}

func (s *auditService) Feedback(ctx context.Context, userID string, in FeedbackInput) error {
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := validateStruct(in); err != nil {
		return err
	}
	changes := map[string]any{
		"category":  in.Category,
		"feedback":  in.Feedback,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}
	return s.audit.append(ctx, userID, "user_feedback", "feedback", nil, changes)
}

func (s *auditService) List(ctx context.Context, userID string, limit, offset int) (*AuditListResult, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.ListByUser(ctx, userID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &AuditListResult{Items: res.Items, Total: res.Total}, nil
}

// auditor appends audit rows on behalf of other services.
type auditor struct {
	repo repository.AuditRepository
	now  Clock
	log  *slog.Logger
}

func newAuditor(repo repository.AuditRepository, now Clock, log *slog.Logger) auditor {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return auditor{repo: repo, now: now, log: log.With("component", "audit")}
}

func (a auditor) append(ctx context.Context, userID, action, entity string, documentID *string, changes any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	info := clientInfoFrom(ctx)
	return a.repo.Append(ctx, &model.AuditLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		EntityType: entity,
		DocumentID: documentID,
		Changes:    raw,
		IPAddress:  optional(info.IPAddress),
		UserAgent:  optional(info.UserAgent),
		CreatedAt:  a.now().UTC(),
	})
}

// record is append for side trails: a failure is logged, never returned.
func (a auditor) record(ctx context.Context, userID, action, entity string, documentID *string, changes any) {
	if err := a.append(ctx, userID, action, entity, documentID, changes); err != nil {
		a.log.Error("audit_append_failed", "action", action, "user_id", userID, "error", err.Error())
	}
}
