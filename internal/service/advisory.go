package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"doctrack/internal/ai"
	"doctrack/internal/expiry"
	"doctrack/internal/model"
	"doctrack/internal/repository"
)

// ErrTooLarge is returned when a scan image exceeds the configured limit.
var ErrTooLarge = errors.New("image too large")

// Advisor is the LLM gateway as seen by the advisory service.
type Advisor interface {
	Analyze(ctx context.Context, t ai.AnalysisType, doc ai.DocumentInput, country string) (json.RawMessage, error)
	Suggest(ctx context.Context, docs []ai.DocumentInput) (*ai.Suggestions, error)
	Scan(ctx context.Context, imageDataURL, country string) (*ai.ScanResult, error)
	Advise(ctx context.Context, q ai.AdvisorQuestion, docs []ai.AdvisorDocument) (string, error)
}

var _ Advisor = (*ai.Client)(nil)

// AnalyzeInput requests an analysis of one document, or a renewal_suggestions batch.
// DocumentID loads a stored document; Document carries the fields inline.
type AnalyzeInput struct {
	AnalysisType ai.AnalysisType    `json:"analysisType" validate:"required"`
	DocumentID   string             `json:"documentId" validate:"omitempty,uuid"`
	Document     *ai.DocumentInput  `json:"documentData"`
	Documents    []ai.DocumentInput `json:"documents"`
	Country      *string            `json:"country" validate:"omitempty,max=100"`
}

// AnalysisResult is the reply of an analysis request.
type AnalysisResult struct {
	Success     bool            `json:"success"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	Suggestions []ai.Suggestion `json:"suggestions,omitempty"`
}

// ScanInput is a photo of a document as base64 or data URL.
type ScanInput struct {
	ImageBase64 string  `json:"imageBase64" validate:"required"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
}

// ScanResult wraps the extracted fields.
type ScanResult struct {
	Success bool           `json:"success"`
	Data    *ai.ScanResult `json:"data"`
}

// AdvisorInput is a renewal question. When Question is empty it is derived from the document fields.
type AdvisorInput struct {
	Question     string `json:"question" validate:"max=2000"`
	DocumentType string `json:"documentType"`
	DocumentName string `json:"documentName"`
	ExpiryDate   string `json:"expiryDate"`
}

// AdvisorResult carries the advisor's answer.
type AdvisorResult struct {
	Advice string `json:"advice"`
}

// AdvisoryService is the AI advisory proxy.
type AdvisoryService interface {
	Analyze(ctx context.Context, userID string, in AnalyzeInput) (*AnalysisResult, error)
	Scan(ctx context.Context, userID string, in ScanInput) (*ScanResult, error)
	Advise(ctx context.Context, userID string, in AdvisorInput) (*AdvisorResult, error)
}

type advisoryService struct {
	ai       Advisor
	docs     DocumentService
	profiles repository.ProfileRepository
	maxScan  int64
	now      Clock
	log      *slog.Logger
}

// NewAdvisoryService constructs an AdvisoryService. maxScanBytes bounds the scan payload; zero disables the check.
func NewAdvisoryService(advisor Advisor, docs DocumentService, profiles repository.ProfileRepository, maxScanBytes int64, now Clock, log *slog.Logger) AdvisoryService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &advisoryService{
		ai:       advisor,
		docs:     docs,
		profiles: profiles,
		maxScan:  maxScanBytes,
		now:      now,
		log:      log.With("component", "advisory_service"),
	}
}

func (s *advisoryService) Analyze(ctx context.Context, userID string, in AnalyzeInput) (*AnalysisResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.AnalysisType.Valid() {
		return nil, invalid("invalid analysis type")
	}

	if in.AnalysisType == ai.AnalysisRenewalSuggestions {
		docs := in.Documents
		if len(docs) == 0 {
			var err error
			if docs, err = s.attentionDocuments(ctx, userID); err != nil {
				return nil, err
			}
		}
		if len(docs) == 0 {
			return &AnalysisResult{Success: true, Suggestions: []ai.Suggestion{}}, nil
		}
		out, err := s.ai.Suggest(ctx, docs)
		if err != nil {
			return nil, err
		}
		return &AnalysisResult{Success: true, Suggestions: out.Suggestions}, nil
	}

	var doc ai.DocumentInput
	switch {
	case in.DocumentID != "":
		stored, err := s.docs.Get(ctx, userID, in.DocumentID)
		if err != nil {
			return nil, err
		}
		doc = s.documentInput(*stored)
	case in.Document != nil:
		doc = *in.Document
	default:
		return nil, invalid("documentId or documentData is required")
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, invalid("document name is required")
	}

	country, err := s.country(ctx, userID, in.Country)
	if err != nil {
		return nil, err
	}
	analysis, err := s.ai.Analyze(ctx, in.AnalysisType, doc, country)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Success: true, Analysis: analysis}, nil
}

func (s *advisoryService) Scan(ctx context.Context, userID string, in ScanInput) (*ScanResult, error) {
	if s.maxScan > 0 && int64(len(in.ImageBase64)) > s.maxScan {
		return nil, ErrTooLarge
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	country, err := s.country(ctx, userID, in.Country)
	if err != nil {
		return nil, err
	}
	image := in.ImageBase64
	if !strings.HasPrefix(image, "data:") {
		image = "data:image/jpeg;base64," + image
	}
	out, err := s.ai.Scan(ctx, image, country)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Success: true, Data: out}, nil
}

func (s *advisoryService) Advise(ctx context.Context, userID string, in AdvisorInput) (*AdvisorResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	q := ai.AdvisorQuestion{
		Question:     in.Question,
		DocumentType: in.DocumentType,
		DocumentName: in.DocumentName,
		ExpiryDate:   in.ExpiryDate,
	}
	if strings.TrimSpace(q.Prompt()) == "" {
		return nil, invalid("question or documentType is required")
	}
	list, err := s.docs.List(ctx, userID, ListQuery{})
	if err != nil {
		return nil, err
	}
	known := make([]ai.AdvisorDocument, 0, len(list.Items))
	for _, d := range list.Items {
		known = append(known, ai.AdvisorDocument{
			Name:         d.Name,
			DocumentType: string(d.DocumentType),
			ExpiryDate:   d.ExpiryDate.String(),
		})
	}
	advice, err := s.ai.Advise(ctx, q, known)
	if err != nil {
		return nil, err
	}
	return &AdvisorResult{Advice: advice}, nil
}

// country returns the explicit country, else the caller's profile country.
func (s *advisoryService) country(ctx context.Context, userID string, explicit *string) (string, error) {
	if explicit != nil {
		return strings.TrimSpace(*explicit), nil
	}
	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if p.Country == nil {
		return "", nil
	}
	return *p.Country, nil
}

// attentionDocuments returns the caller's expired and expiring-soon documents.
func (s *advisoryService) attentionDocuments(ctx context.Context, userID string) ([]ai.DocumentInput, error) {
	list, err := s.docs.List(ctx, userID, ListQuery{Sort: string(repository.SortExpiryDate)})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ai.DocumentInput, 0)
	for _, d := range list.Items {
		if expiry.Classify(d.ExpiryDate, now) == expiry.Valid {
			continue
		}
		out = append(out, s.documentInput(d))
	}
	return out, nil
}

func (s *advisoryService) documentInput(d model.Document) ai.DocumentInput {
	in := ai.DocumentInput{
		ID:                d.ID,
		Name:              d.Name,
		DocumentType:      string(d.DocumentType),
		ExpiryDate:        d.ExpiryDate.String(),
		DaysUntilExpiry:   expiry.DaysUntil(d.ExpiryDate, s.now()),
		RenewalPeriodDays: d.RenewalPeriod(),
	}
	if d.IssuingAuthority != nil {
		in.IssuingAuthority = *d.IssuingAuthority
	}
	if d.Notes != nil {
		in.Notes = *d.Notes
	}
	return in
}
