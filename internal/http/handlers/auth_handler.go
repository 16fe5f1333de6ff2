package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.register", err)
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.login", err)
	}
	sess, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) || errors.Is(err, services.ErrInactive) {
			applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": err.Error()})
		}
		return fail(c, "auth.login", err)
	}
	c.Locals("user_id", sess.User.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": sess.User.Email})
	return c.JSON(sess)
}
