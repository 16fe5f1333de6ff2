package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bookstore/internal/domain"
	applog "bookstore/internal/log"
	"bookstore/internal/repos"
	"bookstore/internal/services"
)

type TransactionHandler struct {
	Txs *services.TransactionService
}

type noteRequest struct {
	Note string `json:"note"`
}

// POST /api/v1/transactions
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in services.CreateInput
	if err := bind(c, &in); err != nil {
		return fail(c, "transactions.create", err)
	}
	u := currentUser(c)
	t, err := h.Txs.Create(c.UserContext(), u.ID, in)
	if err != nil {
		return fail(c, "transactions.create", err)
	}
	applog.Audit(c, "transactions.create", map[string]any{
		"transaction_id": t.ID,
		"type":           t.Type,
		"items":          len(t.Items),
		"total":          t.TotalAmount,
	})
	return c.Status(fiber.StatusCreated).JSON(t)
}

// GET /api/v1/transactions?status=&type=&skip=&limit=
func (h *TransactionHandler) ListMine(c *fiber.Ctx) error {
	skip, limit := txPage(c)
	f := repos.ListFilter{
		UserID: currentUser(c).ID,
		Status: domain.TxStatus(c.Query("status")),
		Type:   domain.TxType(c.Query("type")),
	}
	list, err := h.Txs.List(c.UserContext(), f, skip, limit)
	if err != nil {
		return fail(c, "transactions.list", err)
	}
	return c.JSON(list)
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	t, err := h.Txs.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "transactions.get", err)
	}
	return c.JSON(t)
}

// PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateDetails(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in services.DetailsInput
	if err := bind(c, &in); err != nil {
		return fail(c, "transactions.update", err)
	}
	t, err := h.Txs.UpdateDetails(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return fail(c, "transactions.update", err)
	}
	applog.Audit(c, "transactions.update", map[string]any{"transaction_id": id})
	return c.JSON(t)
}

// POST /api/v1/transactions/:id/return
func (h *TransactionHandler) Return(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in noteRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return fail(c, "transactions.return", err)
		}
	}
	t, err := h.Txs.Return(c.UserContext(), currentUser(c), id, in.Note)
	if err != nil {
		return fail(c, "transactions.return", err)
	}
	applog.Audit(c, "transactions.return", map[string]any{"transaction_id": id})
	return c.JSON(t)
}

// POST /api/v1/transactions/:id/cancel
func (h *TransactionHandler) Cancel(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in noteRequest
	if len(c.Body()) > 0 {
		if err := bind(c, &in); err != nil {
			return fail(c, "transactions.cancel", err)
		}
	}
	t, err := h.Txs.Cancel(c.UserContext(), currentUser(c), id, in.Note)
	if err != nil {
		return fail(c, "transactions.cancel", err)
	}
	applog.Audit(c, "transactions.cancel", map[string]any{"transaction_id": id})
	return c.JSON(t)
}

// GET /api/v1/transactions/:id/tracking
func (h *TransactionHandler) Tracking(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	tr, err := h.Txs.Tracking(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "transactions.tracking", err)
	}
	return c.JSON(tr)
}

// GET /api/v1/transactions/stats
func (h *TransactionHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Txs.Stats(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "transactions.stats", err)
	}
	return c.JSON(st)
}
