package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
)

type UserHandler struct {
	Users   *services.UserService
	Txs     *services.TransactionService
	Reviews *services.ReviewService
}

// GET /api/v1/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := bind(c, &in); err != nil {
		return fail(c, "users.me.update", err)
	}
	u, err := h.Users.UpdateProfile(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, "users.me.update", err)
	}
	applog.Audit(c, "users.me.update", nil)
	return c.JSON(u)
}

// PUT /api/v1/users/me/password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var in services.PasswordInput
	if err := bind(c, &in); err != nil {
		return fail(c, "users.me.password", err)
	}
	if err := h.Users.ChangePassword(c.UserContext(), currentUser(c).ID, in); err != nil {
		applog.Security(c, "users.me.password.fail", nil)
		return fail(c, "users.me.password", err)
	}
	applog.Audit(c, "users.me.password", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/users/me/stats
func (h *UserHandler) MyStats(c *fiber.Ctx) error {
	st, err := h.Txs.Stats(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "users.me.stats", err)
	}
	return c.JSON(st)
}

// GET /api/v1/users/me/reviews
func (h *UserHandler) MyReviews(c *fiber.Ctx) error {
	list, err := h.Reviews.ForUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "users.me.reviews", err)
	}
	return c.JSON(list)
}
