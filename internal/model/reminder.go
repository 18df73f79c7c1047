package model

import "time"

// Reminder is a single dated reminder for a document.
// It starts pending (IsSent=false) and is flipped to sent by the reminder email job only.
type Reminder struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	UserID       string    `json:"user_id"`
	ReminderDate Date      `json:"reminder_date"`
	IsSent       bool      `json:"is_sent"`
	IsCustom     bool      `json:"is_custom"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingReminder is an unsent reminder joined with the fields of its document
// needed to build a notification.
type PendingReminder struct {
	Reminder
	DocumentName string       `json:"document_name"`
	DocumentType DocumentType `json:"document_type"`
}

// DueReminder is a reminder due today joined with its document and the owner's profile.
type DueReminder struct {
	Reminder
	Document Document `json:"document"`
	Profile  Profile  `json:"profile"`
}
