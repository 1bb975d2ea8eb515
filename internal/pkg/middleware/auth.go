package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/env"
	"github.com/ShiftDeskApp/ShiftDesk/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the caller identity for every request from
// the Authorization bearer token. Requests without a valid token proceed as
// anonymous; individual routes decide whether that is acceptable.
func UserContextMiddleware(c *fiber.Ctx) error {
	c.Locals(usercontext.ContextKey, usercontext.UserContext{IsLoggedIn: false})

	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return c.Next()
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if raw == "" {
		return c.Next()
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(env.GetEnv("JWT_SECRET", "")), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return c.Next()
	}

	c.Locals(usercontext.ContextKey, usercontext.UserContext{
		UserID:     claims.Subject,
		IsLoggedIn: true,
	})
	return c.Next()
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}
	return c.Next()
}
