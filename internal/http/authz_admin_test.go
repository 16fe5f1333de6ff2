package handlers_test

import (
	"net/http"
	"testing"

	"bookstore/internal/http/handlers"
)

// Admin routes: anonymous 401, regular user 403, admin 200.
func TestAdminRoutesGuarded(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	alice := env.login(t, "alice@bookstore.test")
	admin := env.login(t, "admin@bookstore.test")

	paths := []string{
		"/api/v1/admin/transactions",
		"/api/v1/admin/transactions/stats",
		"/api/v1/admin/overdue",
		"/api/v1/admin/inventory",
		"/api/v1/users",
		"/api/v1/users/u-bob",
	}
	for _, p := range paths {
		if status, _ := env.call(t, http.MethodGet, p, "", nil); status != http.StatusUnauthorized {
			t.Fatalf("%s anonymous: expected 401, got %d", p, status)
		}
		if status, _ := env.call(t, http.MethodGet, p, alice, nil); status != http.StatusForbidden {
			t.Fatalf("%s as user: expected 403, got %d", p, status)
		}
		if status, body := env.call(t, http.MethodGet, p, admin, nil); status != http.StatusOK {
			t.Fatalf("%s as admin: expected 200, got %d body=%s", p, status, body)
		}
	}
}

func TestCatalogWritesAdminOnly(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	alice := env.login(t, "alice@bookstore.test")
	admin := env.login(t, "admin@bookstore.test")

	book := map[string]any{
		"isbn":             "978-0-13-468599-1",
		"title":            "The Pragmatic Programmer",
		"author":           "David Thomas",
		"price":            42.5,
		"stock_quantity":   4,
		"borrow_available": false,
		"category_ids":     []string{"programming"},
	}
	if status, _ := env.call(t, http.MethodPost, "/api/v1/books", alice, book); status != http.StatusForbidden {
		t.Fatalf("user create book: expected 403, got %d", status)
	}
	status, body := env.call(t, http.MethodPost, "/api/v1/books", admin, book)
	if status != http.StatusCreated {
		t.Fatalf("admin create book: expected 201, got %d body=%s", status, body)
	}
	created := decode[struct {
		ID         string `json:"id"`
		ISBN       string `json:"isbn"`
		Categories []struct {
			ID string `json:"id"`
		} `json:"categories"`
	}](t, body)
	if created.ISBN != "9780134685991" {
		t.Fatalf("isbn should be stored without hyphens, got %q", created.ISBN)
	}
	if len(created.Categories) != 1 || created.Categories[0].ID != "programming" {
		t.Fatalf("unexpected categories %s", body)
	}

	if status, _ := env.call(t, http.MethodPost, "/api/v1/books", admin, book); status != http.StatusConflict {
		t.Fatalf("duplicate isbn: expected 409, got %d", status)
	}

	if status, _ := env.call(t, http.MethodPost, "/api/v1/categories", alice, map[string]string{"name": "Poetry"}); status != http.StatusForbidden {
		t.Fatalf("user create category: expected 403, got %d", status)
	}
	if status, _ := env.call(t, http.MethodPost, "/api/v1/categories", admin, map[string]string{"name": "Poetry"}); status != http.StatusCreated {
		t.Fatalf("admin create category: expected 201, got %d", status)
	}

	if status, _ := env.call(t, http.MethodDelete, "/api/v1/books/"+created.ID, alice, nil); status != http.StatusForbidden {
		t.Fatalf("user delete book: expected 403, got %d", status)
	}
	if status, _ := env.call(t, http.MethodDelete, "/api/v1/books/"+created.ID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("admin delete book: expected 204, got %d", status)
	}
	if status, _ := env.call(t, http.MethodGet, "/api/v1/books/"+created.ID, "", nil); status != http.StatusNotFound {
		t.Fatalf("deleted book: expected 404, got %d", status)
	}
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	admin := env.login(t, "admin@bookstore.test")

	if status, _ := env.call(t, http.MethodPost, "/api/v1/users/u-admin/deactivate", admin, nil); status != http.StatusForbidden {
		t.Fatalf("self deactivate: expected 403, got %d", status)
	}
	if status, _ := env.call(t, http.MethodDelete, "/api/v1/users/u-admin", admin, nil); status != http.StatusForbidden {
		t.Fatalf("self delete: expected 403, got %d", status)
	}
}

func TestBookEditIsPartialAndDeleteInUseConflicts(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	alice := env.login(t, "alice@bookstore.test")
	admin := env.login(t, "admin@bookstore.test")

	status, body := env.call(t, http.MethodPut, "/api/v1/books/bk-gopl", admin, map[string]string{
		"title": "The Go Programming Language, 1st ed.",
	})
	if status != http.StatusOK {
		t.Fatalf("title edit: expected 200, got %d body=%s", status, body)
	}
	b := decode[struct {
		Title           string `json:"title"`
		StockQuantity   int    `json:"stock_quantity"`
		BorrowAvailable bool   `json:"borrow_available"`
	}](t, body)
	if b.Title != "The Go Programming Language, 1st ed." || b.StockQuantity != 5 || b.BorrowAvailable {
		t.Fatalf("title-only edit changed other fields: %s", body)
	}

	if status, _ := env.call(t, http.MethodPut, "/api/v1/books/bk-gopl", admin, map[string]int{"stock_quantity": 99}); status != http.StatusBadRequest {
		t.Fatalf("stock through book edit: expected 400, got %d", status)
	}

	status, body = env.call(t, http.MethodPost, "/api/v1/transactions", alice, map[string]any{
		"transaction_type": "buy",
		"delivery_method":  "pickup",
		"items":            []map[string]any{{"book_id": "bk-dune", "quantity": 1}},
	})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, body)
	}
	status, body = env.call(t, http.MethodDelete, "/api/v1/books/bk-dune", admin, nil)
	if status != http.StatusConflict {
		t.Fatalf("delete referenced book: expected 409, got %d body=%s", status, body)
	}
	if status, _ := env.call(t, http.MethodGet, "/api/v1/books/bk-dune", "", nil); status != http.StatusOK {
		t.Fatalf("referenced book must survive, got %d", status)
	}
}
