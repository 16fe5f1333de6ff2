package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"bookstore/internal/http/handlers"
)

func TestRegisterLoginAndProfile(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	reg := map[string]string{
		"email":     "Carol@Example.com",
		"password":  "S3cure!pass",
		"full_name": "Carol Writer",
	}
	status, body := env.call(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", status, body)
	}
	if strings.Contains(string(body), "password") || strings.Contains(string(body), "$2a$") {
		t.Fatalf("register response leaks credentials: %s", body)
	}
	u := decode[map[string]any](t, body)
	if u["email"] != "carol@example.com" {
		t.Fatalf("email should be normalised, got %v", u["email"])
	}
	if u["role"] != "USER" {
		t.Fatalf("new accounts are USER, got %v", u["role"])
	}

	// Same address in another case is still taken.
	reg["email"] = "CAROL@example.com"
	if status, _ := env.call(t, http.MethodPost, "/api/v1/auth/register", "", reg); status != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", status)
	}

	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "wrong-Pass1!",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", status)
	}

	status, body = env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "carol@example.com", "password": "S3cure!pass",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", status, body)
	}
	sess := decode[struct {
		Token     string `json:"access_token"`
		TokenType string `json:"token_type"`
	}](t, body)
	if sess.Token == "" || sess.TokenType != "bearer" {
		t.Fatalf("unexpected session %s", body)
	}

	status, body = env.call(t, http.MethodGet, "/api/v1/users/me", sess.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if me := decode[map[string]any](t, body); me["full_name"] != "Carol Writer" {
		t.Fatalf("me: unexpected body %s", body)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	for _, tok := range []string{"", "not-a-jwt"} {
		status, _ := env.call(t, http.MethodGet, "/api/v1/users/me", tok, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", tok, status)
		}
	}
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	bob := env.login(t, "bob@bookstore.test")
	admin := env.login(t, "admin@bookstore.test")

	if status, _ := env.call(t, http.MethodPost, "/api/v1/users/u-bob/deactivate", admin, nil); status != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", status)
	}

	// The token is still well formed, but the account is switched off.
	if status, _ := env.call(t, http.MethodGet, "/api/v1/users/me", bob, nil); status != http.StatusForbidden {
		t.Fatalf("inactive token: expected 403, got %d", status)
	}
	status, _ := env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "bob@bookstore.test", "password": seedPassword,
	})
	if status != http.StatusForbidden {
		t.Fatalf("inactive login: expected 403, got %d", status)
	}

	if status, _ := env.call(t, http.MethodPost, "/api/v1/users/u-bob/activate", admin, nil); status != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d", status)
	}
	if status, _ := env.call(t, http.MethodGet, "/api/v1/users/me", bob, nil); status != http.StatusOK {
		t.Fatalf("reactivated token: expected 200, got %d", status)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})
	alice := env.login(t, "alice@bookstore.test")

	status, _ := env.call(t, http.MethodPut, "/api/v1/users/me/password", alice, map[string]string{
		"current_password": "nope", "new_password": "N3w!Passw0rd",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong current password: expected 401, got %d", status)
	}

	status, _ = env.call(t, http.MethodPut, "/api/v1/users/me/password", alice, map[string]string{
		"current_password": seedPassword, "new_password": "N3w!Passw0rd",
	})
	if status != http.StatusNoContent {
		t.Fatalf("change password: expected 204, got %d", status)
	}

	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@bookstore.test", "password": "N3w!Passw0rd",
	})
	if status != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", status)
	}
}
