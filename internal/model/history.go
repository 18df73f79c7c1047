package model

import "time"

// HistoryAction names a tracked document mutation.
type HistoryAction string

const (
	HistoryCreated HistoryAction = "created"
	HistoryRenewed HistoryAction = "renewed"
	HistoryUpdated HistoryAction = "updated"
)

// DocumentHistory is an append-only record of a document mutation.
type DocumentHistory struct {
	ID            string        `json:"id"`
	DocumentID    string        `json:"document_id"`
	UserID        string        `json:"user_id"`
	Action        HistoryAction `json:"action"`
	OldExpiryDate *Date         `json:"old_expiry_date"`
	NewExpiryDate *Date         `json:"new_expiry_date"`
	Notes         *string       `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
}
