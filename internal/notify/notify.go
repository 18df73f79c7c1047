// Package notify hands reminders off to external delivery channels through
// RabbitMQ queues: the local-notification bridge for push and the mail queue
// drained by the email provider.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Publisher delivers a JSON message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

// LocalNotification asks the device bridge to raise a notification after DelaySeconds.
type LocalNotification struct {
	UserID       string `json:"user_id"`
	ReminderID   string `json:"reminder_id"`
	DocumentID   string `json:"document_id"`
	DelaySeconds int64  `json:"delay_seconds"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	URL          string `json:"url"`
}

// ReminderEmail is a fully rendered email waiting for the email provider.
type ReminderEmail struct {
	ReminderID string `json:"reminder_id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	HTML       string `json:"html"`
}

// SecondsUntil returns the whole seconds from now until t, rounded down.
func SecondsUntil(t, now time.Time) int64 {
	d := t.Sub(now)
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}

// DocumentURL is the deep link of a document in the client application.
func DocumentURL(documentID string) string {
	return fmt.Sprintf("/document/%s", documentID)
}
