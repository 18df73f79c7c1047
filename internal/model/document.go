package model

import "time"

// DocumentType enumerates the kinds of tracked documents.
type DocumentType string

const (
	DocumentTypeLicense       DocumentType = "license"
	DocumentTypePassport      DocumentType = "passport"
	DocumentTypePermit        DocumentType = "permit"
	DocumentTypeInsurance     DocumentType = "insurance"
	DocumentTypeCertification DocumentType = "certification"
	DocumentTypeOther         DocumentType = "other"
)

// DocumentTypes lists every valid DocumentType in display order.
var DocumentTypes = []DocumentType{
	DocumentTypeLicense,
	DocumentTypePassport,
	DocumentTypePermit,
	DocumentTypeInsurance,
	DocumentTypeCertification,
	DocumentTypeOther,
}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultRenewalPeriodDays applies when a document has no renewal period recorded.
const DefaultRenewalPeriodDays = 30

// Document is a tracked document owned by one user and optionally shared with an organization.
// This is a pure domain model with no database-specific dependencies or tags.
type Document struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	OrganizationID    *string      `json:"organization_id"`
	Name              string       `json:"name"`
	DocumentType      DocumentType `json:"document_type"`
	IssuingAuthority  *string      `json:"issuing_authority"`
	ExpiryDate        Date         `json:"expiry_date"`
	RenewalPeriodDays *int         `json:"renewal_period_days"`
	Notes             *string      `json:"notes"`
	ImagePath         *string      `json:"image_path"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// RenewalPeriod returns the recorded renewal period, or the default when none is set.
func (d Document) RenewalPeriod() int {
	if d.RenewalPeriodDays == nil {
		return DefaultRenewalPeriodDays
	}
	return *d.RenewalPeriodDays
}

// CanScheduleReminders reports whether both inputs of the reminder scheduler are present.
func (d Document) CanScheduleReminders() bool {
	return !d.ExpiryDate.IsZero() && d.RenewalPeriodDays != nil
}
