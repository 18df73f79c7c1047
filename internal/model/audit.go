package model

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only trace of a user action.
type AuditLog struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	DocumentID *string         `json:"document_id"`
	Changes    json.RawMessage `json:"changes"`
	IPAddress  *string         `json:"ip_address"`
	UserAgent  *string         `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
}
