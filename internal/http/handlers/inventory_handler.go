package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type stockRequest struct {
	StockQuantity *int `json:"stock_quantity"`
}

// GET /api/v1/books/:id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return fail(c, "inventory.check", err)
	}
	return c.JSON(avail)
}

// GET /api/v1/admin/inventory
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.list", err)
	}
	return c.JSON(rows)
}

// PUT /api/v1/admin/inventory/:book_id
func (h *InventoryHandler) Set(c *fiber.Ctx) error {
	id, ok := idParam(c, "book_id")
	if !ok {
		return notFound(c)
	}
	var in stockRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.inventory.save", err)
	}
	if in.StockQuantity == nil {
		return fail(c, "admin.inventory.save", missing("stock_quantity"))
	}
	if err := h.Inv.SetStock(c.UserContext(), id, *in.StockQuantity); err != nil {
		return fail(c, "admin.inventory.save", err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"book_id": id, "qty": *in.StockQuantity})
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.inventory.save", err)
	}
	return c.JSON(avail)
}
