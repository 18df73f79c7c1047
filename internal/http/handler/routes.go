package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"doctrack/internal/http/middleware"
	"doctrack/internal/realtime"
	"doctrack/internal/service"
)

// Deps carries everything the HTTP surface talks to.
type Deps struct {
	DB            *sql.DB
	Documents     service.DocumentService
	Profiles      service.ProfileService
	Organizations service.OrganizationService
	Audit         service.AuditService
	Advisory      service.AdvisoryService
	// Feed is nil when no realtime backend is configured; /feed then answers 503.
	Feed          realtime.Subscriber
	Notifications Dispatcher
	ReminderJob   JobRunner
	Metrics       prometheus.Gatherer
	JWTSecret     string
	JobToken      string
	Now           func() time.Time
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Probes and metrics are public, the cron endpoint is guarded by the job token and
// everything else requires a bearer token.
func RegisterRoutes(app *fiber.App, d Deps) {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Metrics != nil {
		app.Get("/metrics", Metrics(d.Metrics))
	}

	app.Post("/jobs/reminder-emails", middleware.JobToken(d.JobToken), RunReminderEmails(d.ReminderJob))

	// Auth is attached per route so unknown paths still answer 404/405.
	auth := middleware.Auth(d.JWTSecret)

	// Static segments are registered before /documents/:id so they are not parsed as ids.
	app.Get("/documents", auth, ListDocuments(d.Documents))
	app.Post("/documents", auth, CreateDocument(d.Documents))
	app.Post("/documents/bulk", auth, BulkCreateDocuments(d.Documents))
	app.Get("/documents/export", auth, ExportDocuments(d.Documents, now))
	app.Get("/documents/stats", auth, DocumentStats(d.Documents))
	app.Get("/documents/:id", auth, GetDocument(d.Documents))
	app.Put("/documents/:id", auth, UpdateDocument(d.Documents))
	app.Delete("/documents/:id", auth, DeleteDocument(d.Documents))
	app.Post("/documents/:id/image", auth, UploadDocumentImage(d.Documents))
	app.Get("/documents/:id/image", auth, DocumentImageURL(d.Documents))
	app.Get("/documents/:id/image/raw", auth, DocumentImageRaw(d.Documents))
	app.Get("/documents/:id/reminders", auth, DocumentReminders(d.Documents))
	app.Get("/documents/:id/history", auth, DocumentHistory(d.Documents))
	app.Get("/feed", auth, Feed(d.Feed))

	app.Get("/profile", auth, GetProfile(d.Profiles))
	app.Put("/profile", auth, UpdateProfile(d.Profiles))

	app.Get("/organizations", auth, ListOrganizations(d.Organizations))
	app.Post("/organizations", auth, CreateOrganization(d.Organizations))
	app.Delete("/organizations/:id", auth, DeleteOrganization(d.Organizations))
	app.Get("/organizations/:id/members", auth, ListMembers(d.Organizations))
	app.Post("/organizations/:id/members", auth, AddMember(d.Organizations))
	app.Put("/organizations/:id/members/:memberId", auth, UpdateMemberRole(d.Organizations))
	app.Delete("/organizations/:id/members/:memberId", auth, RemoveMember(d.Organizations))

	app.Get("/audit-logs", auth, ListAuditLogs(d.Audit))
	app.Post("/feedback", auth, SubmitFeedback(d.Audit))

	app.Post("/ai/analyze", auth, AnalyzeDocument(d.Advisory))
	app.Post("/ai/scan", auth, ScanDocument(d.Advisory))
	app.Post("/ai/advisor", auth, AskAdvisor(d.Advisory))

	app.Post("/notifications/schedule", auth, ScheduleNotifications(d.Notifications, now))
}
