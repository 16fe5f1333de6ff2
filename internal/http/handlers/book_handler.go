package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
	"bookstore/internal/validate"
)

type BookHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/books?search=&category_id=&skip=&limit=
func (h *BookHandler) List(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("search"))
	if !ok {
		return fail(c, "books.search", validate.Errors{"search": "contains unsupported characters"})
	}
	catID := c.Query("category_id")
	if catID != "" {
		if _, ok := validate.ID(catID); !ok {
			return fail(c, "books.search", validate.Errors{"category_id": "must be a valid identifier"})
		}
	}
	skip, limit := page(c)
	books, err := h.Catalog.Search(c.UserContext(), q, catID, skip, limit)
	if err != nil {
		return fail(c, "books.search", err)
	}
	if q != "" {
		applog.Info(c, "books.search", map[string]any{"q": q, "results": len(books)})
	}
	return c.JSON(books)
}

// GET /api/v1/books/:id
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	b, err := h.Catalog.GetBook(c.UserContext(), id)
	if err != nil {
		return fail(c, "books.get", err)
	}
	return c.JSON(b)
}

// POST /api/v1/books
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var in services.BookInput
	if err := bind(c, &in); err != nil {
		return fail(c, "books.create", err)
	}
	b, err := h.Catalog.CreateBook(c.UserContext(), in)
	if err != nil {
		return fail(c, "books.create", err)
	}
	applog.Audit(c, "books.create", map[string]any{"book_id": b.ID, "isbn": b.ISBN})
	return c.Status(fiber.StatusCreated).JSON(b)
}

// PUT /api/v1/books/:id
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in services.BookPatch
	if err := bind(c, &in); err != nil {
		return fail(c, "books.update", err)
	}
	b, err := h.Catalog.UpdateBook(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "books.update", err)
	}
	applog.Audit(c, "books.update", map[string]any{"book_id": id})
	return c.JSON(b)
}

// DELETE /api/v1/books/:id
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	if err := h.Catalog.DeleteBook(c.UserContext(), id); err != nil {
		return fail(c, "books.delete", err)
	}
	applog.Audit(c, "books.delete", map[string]any{"book_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
