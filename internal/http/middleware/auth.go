package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"doctrack/internal/service"
)

const (
	// UserIDLocalKey is the Fiber locals key holding the authenticated user id.
	UserIDLocalKey = "user_id"
	// JobTokenHeader carries the shared secret of scheduled job callers.
	JobTokenHeader = "X-Job-Token"
)

// Auth verifies the HS256 bearer token issued by the authentication provider and
// stores its subject as the caller's user id. The caller's IP and user agent are
// attached to the request context for audit rows.
func Auth(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *fiber.Ctx) error {
		if len(key) == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication is not configured")
		}

		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		var claims jwt.RegisteredClaims
		_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		if _, err := uuid.Parse(claims.Subject); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token subject")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		c.SetUserContext(service.WithClientInfo(c.UserContext(), service.ClientInfo{
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}))
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Auth, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

// JobToken guards scheduled job endpoints with a shared secret. An empty token
// disables the endpoints entirely.
func JobToken(token string) fiber.Handler {
	want := []byte(token)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(JobTokenHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid job token")
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
