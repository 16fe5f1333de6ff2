package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
	"bookstore/internal/token"
)

// RequireUser resolves the bearer token to an active user and stores it in
// Locals("user").
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInactive):
				applog.Security(c, "access.denied.inactive", nil)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
			case errors.Is(err, token.ErrMissing):
			default:
				applog.Security(c, "auth.token.invalid", map[string]any{"reason": err.Error()})
			}
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin role required"})
		}
		return c.Next()
	}
}
