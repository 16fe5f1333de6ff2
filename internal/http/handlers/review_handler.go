package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "bookstore/internal/log"
	"bookstore/internal/services"
	"bookstore/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// GET /api/v1/books/:id/reviews
func (h *ReviewHandler) ForBook(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	skip, limit := page(c)
	out, err := h.Reviews.ForBook(c.UserContext(), id, skip, limit)
	if err != nil {
		return fail(c, "reviews.list", err)
	}
	return c.JSON(out)
}

// POST /api/v1/books/:id/reviews
func (h *ReviewHandler) Add(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return fail(c, "reviews.add", err)
	}
	rv, err := h.Reviews.Add(c.UserContext(), currentUser(c).ID, id, in)
	if err != nil {
		return fail(c, "reviews.add", err)
	}
	applog.Audit(c, "reviews.add", map[string]any{"review_id": rv.ID, "book_id": id})
	return c.Status(fiber.StatusCreated).JSON(rv)
}

// PUT /api/v1/reviews/:id
func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return fail(c, "reviews.update", err)
	}
	rv, err := h.Reviews.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return fail(c, "reviews.update", err)
	}
	return c.JSON(rv)
}

// DELETE /api/v1/reviews/:id
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	if err := h.Reviews.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "reviews.delete", err)
	}
	applog.Audit(c, "reviews.delete", map[string]any{"review_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

type voteRequest struct {
	Helpful *bool `json:"helpful"`
}

// POST /api/v1/reviews/:id/vote
func (h *ReviewHandler) Vote(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	var in voteRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "reviews.vote", err)
	}
	if in.Helpful == nil {
		return fail(c, "reviews.vote", missing("helpful"))
	}
	rv, err := h.Reviews.Vote(c.UserContext(), currentUser(c), id, *in.Helpful)
	if err != nil {
		return fail(c, "reviews.vote", err)
	}
	return c.JSON(rv)
}

// Ranked serves GET /api/v1/reviews/{recent,top-rated,helpful}?limit=
func (h *ReviewHandler) Ranked(order string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, limit := validate.PageDefault("", c.Query("limit"), 10)
		list, err := h.Reviews.Ranked(c.UserContext(), order, limit)
		if err != nil {
			return fail(c, "reviews.ranked", err)
		}
		return c.JSON(list)
	}
}

// GET /api/v1/reviews/stats?book_id=
func (h *ReviewHandler) Stats(c *fiber.Ctx) error {
	bookID := c.Query("book_id")
	if bookID != "" {
		var ok bool
		if bookID, ok = validate.ID(bookID); !ok {
			return fail(c, "reviews.stats", validate.Errors{"book_id": "must be a valid identifier"})
		}
	}
	st, err := h.Reviews.Stats(c.UserContext(), bookID)
	if err != nil {
		return fail(c, "reviews.stats", err)
	}
	return c.JSON(st)
}
