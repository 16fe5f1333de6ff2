package handlers_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"bookstore/internal/http/handlers"
	applog "bookstore/internal/log"
)

// Internal failures come back as a generic JSON message.
func TestErrorHandlerHidesInternals(t *testing.T) {
	logs := &lockedBuffer{}
	applog.Init(logs, "info", "json")
	t.Cleanup(func() { applog.Init(io.Discard, "info", "json") })

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Get("/fiber-err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/plain-err", func(c *fiber.Ctx) error {
		return errors.New("sqlite: secret table users locked")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	for _, path := range []string{"/fiber-err", "/plain-err"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		s := string(body)
		if !strings.Contains(s, "internal server error") {
			t.Fatalf("%s: generic message missing; body=%s", path, s)
		}
		if strings.Contains(s, "secret") {
			t.Fatalf("%s: internal details leaked; body=%s", path, s)
		}
	}

	if _, ok := logs.find("error", "server.error"); !ok {
		t.Fatalf("expected server.error log line, got %s", logs.String())
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusTeapot || !strings.Contains(string(body), "short and stout") {
		t.Fatalf("client errors keep their message; got %d %s", resp.StatusCode, body)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	status, body := env.call(t, http.MethodGet, "/api/v1/nope", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if e := decode[errorBody](t, body); e.Error == "" {
		t.Fatalf("expected JSON error body, got %s", body)
	}

	status, _ = env.call(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", status)
	}
}
