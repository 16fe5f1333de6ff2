package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bookstore/internal/domain"
	applog "bookstore/internal/log"
	"bookstore/internal/repos"
	"bookstore/internal/services"
	"bookstore/internal/validate"
)

type AdminHandler struct {
	Txs   *services.TransactionService
	Users *services.UserService
}

type statusRequest struct {
	Status   domain.TxStatus `json:"status"`
	Location string          `json:"location"`
	Note     string          `json:"note"`
}

type trackingRequest struct {
	Location string `json:"location"`
	Note     string `json:"note"`
}

// GET /api/v1/admin/transactions?user_id=&status=&type=&skip=&limit=
func (h *AdminHandler) Transactions(c *fiber.Ctx) error {
	skip, limit := txPage(c)
	f := repos.ListFilter{
		UserID: c.Query("user_id"),
		Status: domain.TxStatus(c.Query("status")),
		Type:   domain.TxType(c.Query("type")),
	}
	list, err := h.Txs.List(c.UserContext(), f, skip, limit)
	if err != nil {
		return fail(c, "admin.transactions.list", err)
	}
	return c.JSON(list)
}

// GET /api/v1/admin/transactions/stats?user_id=
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Txs.Stats(c.UserContext(), c.Query("user_id"))
	if err != nil {
		return fail(c, "admin.transactions.stats", err)
	}
	return c.JSON(st)
}

// GET /api/v1/admin/overdue?user_id=
func (h *AdminHandler) Overdue(c *fiber.Ctx) error {
	list, err := h.Txs.Overdue(c.UserContext(), c.Query("user_id"))
	if err != nil {
		return fail(c, "admin.overdue", err)
	}
	return c.JSON(list)
}

// POST /api/v1/admin/transactions/:id/status
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in statusRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.transactions.status", err)
	}
	if in.Status == "" {
		return fail(c, "admin.transactions.status", missing("status"))
	}
	t, err := h.Txs.UpdateStatus(c.UserContext(), currentUser(c), id, in.Status, in.Location, in.Note)
	if err != nil {
		return fail(c, "admin.transactions.status", err)
	}
	applog.Audit(c, "admin.transactions.status", map[string]any{"transaction_id": id, "status": t.Status})
	return c.JSON(t)
}

// POST /api/v1/admin/transactions/:id/tracking
func (h *AdminHandler) AddTracking(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in trackingRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.transactions.tracking", err)
	}
	tr, err := h.Txs.AddTracking(c.UserContext(), id, in.Location, in.Note)
	if err != nil {
		return fail(c, "admin.transactions.tracking", err)
	}
	applog.Audit(c, "admin.transactions.tracking", map[string]any{"transaction_id": id})
	return c.Status(fiber.StatusCreated).JSON(tr)
}

// GET /api/v1/users?is_active=&skip=&limit=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	active, ok := boolQuery(c, "is_active")
	if !ok {
		return fail(c, "admin.users.list", validate.Errors{"is_active": "must be true or false"})
	}
	skip, limit := page(c)
	users, err := h.Users.List(c.UserContext(), active, skip, limit)
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	return c.JSON(users)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	u, err := h.Users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.users.get", err)
	}
	return c.JSON(u)
}

func (h *AdminHandler) ActivateUser(c *fiber.Ctx) error { return h.setActive(c, true) }

func (h *AdminHandler) DeactivateUser(c *fiber.Ctx) error { return h.setActive(c, false) }

func (h *AdminHandler) setActive(c *fiber.Ctx, active bool) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	u, err := h.Users.SetActive(c.UserContext(), currentUser(c).ID, id, active)
	if err != nil {
		return fail(c, "admin.users.active", err)
	}
	applog.Audit(c, "admin.users.active", map[string]any{"target": id, "active": active})
	return c.JSON(u)
}

// DELETE /api/v1/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	if err := h.Users.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return fail(c, "admin.users.delete", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// PUT /api/v1/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in services.AccountPatch
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.users.update", err)
	}
	u, err := h.Users.UpdateAccount(c.UserContext(), currentUser(c).ID, id, in)
	if err != nil {
		return fail(c, "admin.users.update", err)
	}
	applog.Audit(c, "admin.users.update", map[string]any{"target": id, "role": u.Role, "active": u.Active})
	return c.JSON(u)
}
