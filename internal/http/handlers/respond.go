package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bookstore/internal/domain"
	applog "bookstore/internal/log"
	"bookstore/internal/services"
	"bookstore/internal/validate"
)

// fail maps a service error to a JSON response. Unknown errors are logged
// and answered with a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	var verr validate.Errors
	switch {
	case errors.As(err, &verr):
		applog.Security(c, "validation.fail", map[string]any{"action": action, "fields": verr})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": verr})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, services.ErrBadCreds):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotBorrow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrNotBorrowable),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrISBNTaken),
		errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrBookInUse),
		errors.Is(err, services.ErrUserHasOpen):
		applog.Info(c, action+".conflict", map[string]any{"reason": err.Error()})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// bind decodes a JSON body into dst. Errors go through fail as a 400.
func bind(c *fiber.Ctx, dst any) error {
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return validate.Errors{"body": "must be a valid JSON object"}
	}
	return nil
}

// idParam validates a path id; callers respond 404 on false.
func idParam(c *fiber.Ctx, name string) (string, bool) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": name})
	}
	return id, ok
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}

func page(c *fiber.Ctx) (skip, limit int) {
	return validate.Page(c.Query("skip"), c.Query("limit"))
}

// txPage is page for transaction lists, which default to the full window.
func txPage(c *fiber.Ctx) (skip, limit int) {
	return validate.PageDefault(c.Query("skip"), c.Query("limit"), services.MaxListLimit)
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func boolQuery(c *fiber.Ctx, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &b, true
}

func missing(field string) error { return validate.Errors{field: "is required"} }
