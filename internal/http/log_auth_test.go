package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"bookstore/internal/http/handlers"
)

// Login failures are security events, successes are audited.
func TestAuthEventsLogged(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@bookstore.test", "password": "Wrong-pass1!",
	})
	e, ok := env.logs.find("security", "auth.login.fail")
	if !ok {
		t.Fatalf("expected auth.login.fail, got %s", env.logs.String())
	}
	if e.Level != "warn" || e.Fields["email"] != "alice@bookstore.test" {
		t.Fatalf("unexpected fail entry %+v", e)
	}
	if strings.Contains(env.logs.String(), "Wrong-pass1!") {
		t.Fatal("password must never be logged")
	}

	env.logs.Reset()
	env.login(t, "alice@bookstore.test")
	e, ok = env.logs.find("audit", "auth.login.success")
	if !ok {
		t.Fatalf("expected auth.login.success, got %s", env.logs.String())
	}
	if e.UserID != "u-alice" {
		t.Fatalf("success entry should carry user_id, got %+v", e)
	}
	if strings.Contains(env.logs.String(), seedPassword) {
		t.Fatal("password must never be logged")
	}

	env.logs.Reset()
	env.call(t, http.MethodGet, "/api/v1/users/me", "forged.token.value", nil)
	if _, ok := env.logs.find("security", "auth.token.invalid"); !ok {
		t.Fatalf("expected auth.token.invalid, got %s", env.logs.String())
	}
}

func TestRegisterAudited(t *testing.T) {
	env := newTestEnv(t, handlers.Options{})

	status, _ := env.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "dave@example.com", "password": "S3cure!pass", "full_name": "Dave",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d", status)
	}
	e, ok := env.logs.find("audit", "auth.register")
	if !ok {
		t.Fatalf("expected auth.register, got %s", env.logs.String())
	}
	if id, _ := e.Fields["user_id"].(string); id == "" {
		t.Fatalf("register entry should name the new user: %+v", e)
	}
}
