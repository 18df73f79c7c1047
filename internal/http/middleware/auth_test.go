package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func newAuthApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(Auth(secret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	return app
}

func TestAuth(t *testing.T) {
	userID := uuid.NewString()
	app := newAuthApp(testSecret)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID)))

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, userID, string(body))
	})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, validClaims(userID))},
		{"wrong algorithm", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, validClaims(userID))},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})},
		{"no expiry", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})},
		{"subject not a uuid", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("anonymous"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuth_NoSecretRejectsAll(t *testing.T) {
	app := newAuthApp("")

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "x", jwt.SigningMethodHS256, validClaims(uuid.NewString())))

	resp, _ := app.Test(req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJobToken(t *testing.T) {
	app := fiber.New()
	app.Post("/jobs/run", JobToken("cron-secret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("POST", "/jobs/run", nil)
	req.Header.Set(JobTokenHeader, "cron-secret")
	resp, _ := app.Test(req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("POST", "/jobs/run", nil)
	req.Header.Set(JobTokenHeader, "wrong")
	resp, _ = app.Test(req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest("POST", "/jobs/run", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJobToken_EmptyDisables(t *testing.T) {
	app := fiber.New()
	app.Post("/jobs/run", JobToken(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, _ := app.Test(httptest.NewRequest("POST", "/jobs/run", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
