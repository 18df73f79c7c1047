package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"doctrack/internal/http/middleware"
	"doctrack/internal/service"
)

// Dispatcher schedules a user's pending reminders as local notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, now time.Time) (int, error)
}

// JobRunner runs one pass of the reminder email job.
type JobRunner interface {
	Run(ctx context.Context) (*service.ReminderJobResult, error)
}

// ScheduleNotifications godoc
// @Summary Hand the caller's upcoming reminders to the device notification bridge
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]int
// @Router /notifications/schedule [post]
func ScheduleNotifications(d Dispatcher, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := d.Dispatch(c.UserContext(), middleware.UserID(c), now())
		if err != nil {
			return writeServiceError(c, err, "profile not found")
		}
		return c.JSON(fiber.Map{"scheduled": n})
	}
}

// RunReminderEmails godoc
// @Summary Send today's reminder emails (cron)
// @Tags jobs
// @Produce json
// @Param X-Job-Token header string true "Job token"
// @Success 200 {object} service.ReminderJobResult
// @Router /jobs/reminder-emails [post]
func RunReminderEmails(job JobRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := job.Run(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "not found")
		}
		return c.JSON(res)
	}
}
