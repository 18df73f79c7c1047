package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger writes one access log record per request with request_id, method, path,
// status and latency (milliseconds). Server errors are logged at error level together
// with the detail a handler stored under ErrorLocalKey.
func Logger(log *slog.Logger) fiber.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The global error handler runs after the chain returns, so derive the final
		// status from err the same way it will.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		attrs := []any{
			"request_id", RequestIDFrom(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if uid := UserID(c); uid != "" {
			attrs = append(attrs, "user_id", uid)
		}

		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
			if detail, ok := c.Locals(ErrorLocalKey).(string); ok && detail != "" {
				attrs = append(attrs, "error", detail)
			} else if err != nil {
				attrs = append(attrs, "error", err.Error())
			}
		}
		log.Log(c.UserContext(), level, "http_request", attrs...)

		return err
	}
}
