package handlers_test

import (
	"net/http"
	"testing"

	"bookstore/internal/http/handlers"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "password": "S3cure!pass", "full_name": "X"}, "email"},
		{"weak password", map[string]string{"email": "x@example.com", "password": "password", "full_name": "X"}, "password"},
		{"missing name", map[string]string{"email": "x@example.com", "password": "S3cure!pass"}, "full_name"},
		{"malformed json", `{"email":`, "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.call(t, http.MethodPost, "/api/v1/auth/register", "", tc.body)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", status, body)
			}
			e := decode[errorBody](t, body)
			if _, ok := e.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %s", tc.field, body)
			}
		})
	}
}

func TestTransactionValidation(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	alice := env.login(t, "alice@bookstore.test")

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"no items", map[string]any{
			"transaction_type": "buy", "delivery_method": "pickup", "items": []any{},
		}, "items"},
		{"zero quantity", map[string]any{
			"transaction_type": "buy", "delivery_method": "pickup",
			"items": []map[string]any{{"book_id": "bk-dune", "quantity": 0}},
		}, "items[0].quantity"},
		{"bad book id", map[string]any{
			"transaction_type": "buy", "delivery_method": "pickup",
			"items": []map[string]any{{"book_id": "../etc", "quantity": 1}},
		}, "items[0].book_id"},
		{"unknown type", map[string]any{
			"transaction_type": "rent", "delivery_method": "pickup",
			"items": []map[string]any{{"book_id": "bk-dune", "quantity": 1}},
		}, "transaction_type"},
		{"address required for shipping", map[string]any{
			"transaction_type": "buy", "delivery_method": "express_shipping",
			"items": []map[string]any{{"book_id": "bk-dune", "quantity": 1}},
		}, "delivery_address"},
		{"borrow too long", map[string]any{
			"transaction_type": "borrow", "delivery_method": "pickup", "borrow_duration_days": 90,
			"items": []map[string]any{{"book_id": "bk-dune", "quantity": 1}},
		}, "borrow_duration_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.call(t, http.MethodPost, "/api/v1/transactions", alice, tc.body)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", status, body)
			}
			e := decode[errorBody](t, body)
			if _, ok := e.Fields[tc.field]; !ok {
				t.Fatalf("expected field %q in %s", tc.field, body)
			}
		})
	}

	if got := env.stock(t, "bk-dune"); got != 8 {
		t.Fatalf("rejected requests must not touch stock, got %d", got)
	}
}

func TestQueryAndPathValidation(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	status, body := env.call(t, http.MethodGet, "/api/v1/books?search=%3Cscript%3E", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad search: expected 400, got %d", status)
	}
	if e := decode[errorBody](t, body); e.Fields["search"] == "" {
		t.Fatalf("expected search field error, got %s", body)
	}

	status, body = env.call(t, http.MethodGet, "/api/v1/books?search=dune", "", nil)
	if status != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", status)
	}
	books := decode[[]struct {
		ID string `json:"id"`
	}](t, body)
	if len(books) != 1 || books[0].ID != "bk-dune" {
		t.Fatalf("search dune: unexpected %s", body)
	}

	if status, _ := env.call(t, http.MethodGet, "/api/v1/books/bad%20id", "", nil); status != http.StatusNotFound {
		t.Fatalf("bad id: expected 404, got %d", status)
	}

	status, body = env.call(t, http.MethodGet, "/api/v1/categories/science/books", "", nil)
	if status != http.StatusOK {
		t.Fatalf("category books: expected 200, got %d", status)
	}
	if got := decode[[]struct {
		ID string `json:"id"`
	}](t, body); len(got) != 1 || got[0].ID != "bk-cosmos" {
		t.Fatalf("science books: unexpected %s", body)
	}
}
