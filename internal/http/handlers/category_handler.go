package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/categories?parent_id=
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext(), c.Query("parent_id"))
	if err != nil {
		return fail(c, "categories.list", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return fail(c, "categories.get", err)
	}
	return c.JSON(cat)
}

// GET /api/v1/categories/:id/books
func (h *CategoryHandler) Books(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	skip, limit := page(c)
	books, err := h.Catalog.ListBooksByCategory(c.UserContext(), id, skip, limit)
	if err != nil {
		return fail(c, "categories.books", err)
	}
	return c.JSON(books)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := bind(c, &in); err != nil {
		return fail(c, "categories.create", err)
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "categories.create", err)
	}
	applog.Audit(c, "categories.create", map[string]any{"category_id": cat.ID})
	return c.Status(fiber.StatusCreated).JSON(cat)
}
