package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doctrack/internal/ai"
	"doctrack/internal/http/middleware"
	"doctrack/internal/service"
	serviceMocks "doctrack/internal/service/mocks"
)

const testUserID = "0b9a4c7e-2f57-4a43-9d53-3b3c7f0c1a11"

// withUser stands in for the Auth middleware.
func withUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, userID)
		return c.Next()
	}
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(withUser(testUserID))
	return app
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "doctrack_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	app := fiber.New()
	app.Get("/metrics", Metrics(reg))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "doctrack_test_total 1")
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", fmt.Errorf("%w: name is required", service.ErrValidation), 400, "VALIDATION_ERROR", "name is required"},
		{"bulk validation keeps position", fmt.Errorf("document 2: %w: name is required", service.ErrValidation), 400, "VALIDATION_ERROR", "document 2: name is required"},
		{"not found", service.ErrNotFound, 404, "NOT_FOUND", "document not found"},
		{"no image", service.ErrNoImage, 404, "NOT_FOUND", "document has no image"},
		{"forbidden", service.ErrForbidden, 403, "FORBIDDEN", "insufficient permissions"},
		{"too large", service.ErrTooLarge, 413, "PAYLOAD_TOO_LARGE", service.ErrTooLarge.Error()},
		{"rate limited", fmt.Errorf("analyze: %w", ai.ErrRateLimited), 429, "RATE_LIMITED", ai.ErrRateLimited.Error()},
		{"payment required", ai.ErrPaymentRequired, 402, "PAYMENT_REQUIRED", ai.ErrPaymentRequired.Error()},
		{"analysis failed hides detail", fmt.Errorf("%w: upstream 500: boom", ai.ErrAnalysisFailed), 500, "ANALYSIS_FAILED", ai.ErrAnalysisFailed.Error()},
		{"ai not configured", ai.ErrNotConfigured, 503, "SERVICE_UNAVAILABLE", ai.ErrNotConfigured.Error()},
		{"unexpected hides detail", errors.New("pq: connection reset"), 500, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error {
				return writeServiceError(c, tc.err, "document not found")
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.Equal(t, tc.message, body.Error.Message)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	docs := new(serviceMocks.MockDocumentService)
	secret := "routing-secret"
	RegisterRoutes(app, Deps{
		Documents: docs,
		JWTSecret: secret,
		JobToken:  "job-secret",
		Metrics:   prometheus.NewRegistry(),
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("health without database", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("metrics are public", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("documents require a token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("token subject becomes the caller", func(t *testing.T) {
		userID := uuid.NewString()
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte(secret))
		require.NoError(t, err)

		docs.On("Stats", mock.Anything, userID).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/stats", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		docs.AssertExpectations(t)
	})

	t.Run("job endpoint requires job token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/jobs/reminder-emails", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
