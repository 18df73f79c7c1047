package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"doctrack/internal/expiry"
	"doctrack/internal/model"
	"doctrack/internal/notify"
	"doctrack/internal/repository"
)

// ReminderJobResult summarizes one run of the reminder email job.
type ReminderJobResult struct {
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Errors  int    `json:"errors"`
	Total   int    `json:"total"`
}

// ReminderJobConfig holds the email settings of the job.
type ReminderJobConfig struct {
	Queue      string
	From       string
	AppBaseURL string
}

// ReminderJob hands today's unsent reminders to the mail queue and marks them sent.
// It is the only writer of the sent flag.
type ReminderJob struct {
	reminders repository.ReminderRepository
	pub       notify.Publisher
	cfg       ReminderJobConfig
	now       Clock
	log       *slog.Logger
}

// NewReminderJob constructs a ReminderJob.
func NewReminderJob(reminders repository.ReminderRepository, pub notify.Publisher, cfg ReminderJobConfig, now Clock, log *slog.Logger) *ReminderJob {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReminderJob{
		reminders: reminders,
		pub:       pub,
		cfg:       cfg,
		now:       now,
		log:       log.With("component", "reminder_job"),
	}
}

// Run processes every reminder due today. Per-reminder failures are counted, not returned.
func (j *ReminderJob) Run(ctx context.Context) (*ReminderJobResult, error) {
	now := j.now()
	today := model.Today(now)
	j.log.Info("reminder_job_start", "date", today.String())

	due, err := j.reminders.ListDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	if len(due) == 0 {
		return &ReminderJobResult{Message: "No reminders to send"}, nil
	}

	res := &ReminderJobResult{Message: "Reminder job complete", Total: len(due)}
	for _, r := range due {
		p := r.Profile
		if !p.EmailNotificationsEnabled || !p.ExpiryRemindersEnabled || p.Email == nil || *p.Email == "" {
			j.log.Debug("reminder_skipped", "reminder_id", r.ID)
			continue
		}

		email, err := j.buildEmail(r, now)
		if err != nil {
			j.log.Error("reminder_email_render_failed", "reminder_id", r.ID, "error", err.Error())
			res.Errors++
			continue
		}
		if err := j.pub.Publish(ctx, j.cfg.Queue, email); err != nil {
			j.log.Error("reminder_email_enqueue_failed", "reminder_id", r.ID, "error", err.Error())
			res.Errors++
			continue
		}
		if err := j.reminders.MarkSent(ctx, r.ID); err != nil {
			j.log.Error("reminder_mark_sent_failed", "reminder_id", r.ID, "error", err.Error())
			res.Errors++
			continue
		}
		res.Sent++
	}

	j.log.Info("reminder_job_complete", "sent", res.Sent, "errors", res.Errors, "total", res.Total)
	return res, nil
}

var reminderEmailTmpl = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1E40AF;">Document Expiry Reminder</h2>
  <p>Hello {{.Greeting}},</p>
  <p>This is a friendly reminder that your document is expiring soon:</p>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #374151;">Document Details</h3>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Type:</strong> {{.Type}}</p>
    {{- if .IssuedBy}}
    <p><strong>Issued by:</strong> {{.IssuedBy}}</p>
    {{- end}}
    <p><strong>Expiry Date:</strong> {{.ExpiryDate}}</p>
    <p style="color: #EF4444; font-weight: bold;">Days until expiry: {{.Days}}</p>
  </div>
  <p>Please make sure to renew this document before it expires.</p>
  <div style="margin-top: 30px;">
    <a href="{{.Link}}" style="background-color: #1E40AF; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Document</a>
  </div>
  <p style="margin-top: 30px; font-size: 14px; color: #6b7280;">This is an automated reminder. You can manage your notification preferences in your profile settings.</p>
</div>
`))

func (j *ReminderJob) buildEmail(r model.DueReminder, now time.Time) (notify.ReminderEmail, error) {
	doc := r.Document
	days := expiry.DaysUntil(doc.ExpiryDate, now)
	greeting := "there"
	if r.Profile.DisplayName != nil && *r.Profile.DisplayName != "" {
		greeting = *r.Profile.DisplayName
	}
	issuedBy := ""
	if doc.IssuingAuthority != nil {
		issuedBy = *doc.IssuingAuthority
	}

	var buf bytes.Buffer
	err := reminderEmailTmpl.Execute(&buf, map[string]any{
		"Greeting":   greeting,
		"Name":       doc.Name,
		"Type":       string(doc.DocumentType),
		"IssuedBy":   issuedBy,
		"ExpiryDate": doc.ExpiryDate.String(),
		"Days":       days,
		"Link":       strings.TrimRight(j.cfg.AppBaseURL, "/") + notify.DocumentURL(doc.ID),
	})
	if err != nil {
		return notify.ReminderEmail{}, err
	}
	return notify.ReminderEmail{
		ReminderID: r.ID,
		DocumentID: doc.ID,
		UserID:     r.UserID,
		From:       j.cfg.From,
		To:         *r.Profile.Email,
		Subject:    fmt.Sprintf("Reminder: %s expires in %d days", doc.Name, days),
		HTML:       buf.String(),
	}, nil
}
