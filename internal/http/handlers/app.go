package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "bookstore/internal/log"
	"bookstore/internal/repos"
)

type Options struct {
	// Storage backs the rate limiters; nil keeps counters in memory.
	Storage fiber.Storage
	// APIMax is the per-IP request budget per minute for the whole API.
	APIMax int
	// LoginMax is the per-IP budget for login attempts per 10 minutes.
	LoginMax int
	// BodyLimit caps request bodies in bytes.
	BodyLimit int
}

func (o Options) withDefaults() Options {
	if o.APIMax <= 0 {
		o.APIMax = 120
	}
	if o.LoginMax <= 0 {
		o.LoginMax = 5
	}
	if o.BodyLimit <= 0 {
		o.BodyLimit = 1 << 20 // 1 MiB
	}
	return o
}

// ErrorHandler answers with JSON and never echoes internal error text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps, opts Options) *fiber.App {
	opts = opts.withDefaults()

	app := fiber.New(fiber.Config{
		AppName:      "bookstore",
		BodyLimit:    opts.BodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Output:     applog.Writer(),
		TimeFormat: time.RFC3339,
		CustomTags: map[string]logger.LogFunc{
			"jsonpath": func(out logger.Buffer, c *fiber.Ctx, _ *logger.Data, _ string) (int, error) {
				b, err := json.Marshal(c.Path())
				if err != nil {
					return 0, err
				}
				return out.Write(b)
			},
		},
		Format: `{"kind":"access","ts":"${time}","req_id":"${locals:requestid}","ip":"${ip}",` +
			`"method":"${method}","path":${jsonpath},"status":${status},"latency":"${latency}"}` + "\n",
	}))
	app.Use(helmet.New())

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1", limiter.New(limiter.Config{
		Max:        opts.APIMax,
		Expiration: time.Minute,
		Storage:    opts.Storage,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.api.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	user := RequireUser(d.Auth)
	admin := RequireAdmin()

	// Auth (login throttled)
	api.Post("/auth/register", d.AuthHandler.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        opts.LoginMax,
		Expiration: 10 * time.Minute,
		Storage:    opts.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), d.AuthHandler.Login)

	// Current user
	api.Get("/users/me", user, d.UserHandler.Me)
	api.Put("/users/me", user, d.UserHandler.UpdateMe)
	api.Put("/users/me/password", user, d.UserHandler.ChangePassword)
	api.Get("/users/me/stats", user, d.UserHandler.MyStats)
	api.Get("/users/me/reviews", user, d.UserHandler.MyReviews)

	// User administration
	api.Get("/users", user, admin, d.AdminHandler.ListUsers)
	api.Get("/users/:id", user, admin, d.AdminHandler.GetUser)
	api.Put("/users/:id", user, admin, d.AdminHandler.UpdateUser)
	api.Post("/users/:id/activate", user, admin, d.AdminHandler.ActivateUser)
	api.Post("/users/:id/deactivate", user, admin, d.AdminHandler.DeactivateUser)
	api.Delete("/users/:id", user, admin, d.AdminHandler.DeleteUser)

	// Catalog
	api.Get("/books", d.BookHandler.List)
	api.Get("/books/:id", d.BookHandler.Get)
	api.Get("/books/:id/availability", d.InventoryHandler.Check)
	api.Post("/books", user, admin, d.BookHandler.Create)
	api.Put("/books/:id", user, admin, d.BookHandler.Update)
	api.Delete("/books/:id", user, admin, d.BookHandler.Delete)

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/:id", d.CategoryHandler.Get)
	api.Get("/categories/:id/books", d.CategoryHandler.Books)
	api.Post("/categories", user, admin, d.CategoryHandler.Create)

	// Reviews
	api.Get("/books/:id/reviews", d.ReviewHandler.ForBook)
	api.Post("/books/:id/reviews", user, d.ReviewHandler.Add)
	api.Get("/reviews/recent", d.ReviewHandler.Ranked(repos.RankRecent))
	api.Get("/reviews/top-rated", d.ReviewHandler.Ranked(repos.RankTopRated))
	api.Get("/reviews/helpful", d.ReviewHandler.Ranked(repos.RankHelpful))
	api.Get("/reviews/stats", d.ReviewHandler.Stats)
	api.Post("/reviews/:id/vote", user, d.ReviewHandler.Vote)
	api.Put("/reviews/:id", user, d.ReviewHandler.Update)
	api.Delete("/reviews/:id", user, d.ReviewHandler.Delete)

	// Transactions
	tx := api.Group("/transactions", user)
	tx.Post("/", d.TransactionHandler.Create)
	tx.Get("/", d.TransactionHandler.ListMine)
	tx.Get("/stats", d.TransactionHandler.Stats)
	tx.Get("/:id", d.TransactionHandler.Get)
	tx.Put("/:id", d.TransactionHandler.UpdateDetails)
	tx.Post("/:id/return", d.TransactionHandler.Return)
	tx.Post("/:id/cancel", d.TransactionHandler.Cancel)
	tx.Get("/:id/tracking", d.TransactionHandler.Tracking)

	// Admin
	adm := api.Group("/admin", user, admin)
	adm.Get("/transactions", d.AdminHandler.Transactions)
	adm.Get("/transactions/stats", d.AdminHandler.Stats)
	adm.Post("/transactions/:id/status", d.AdminHandler.UpdateStatus)
	adm.Post("/transactions/:id/tracking", d.AdminHandler.AddTracking)
	adm.Get("/overdue", d.AdminHandler.Overdue)
	adm.Get("/inventory", d.InventoryHandler.List)
	adm.Put("/inventory/:book_id", d.InventoryHandler.Set)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})
	return app
}
