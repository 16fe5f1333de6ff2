package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"bookstore/internal/config"
	"bookstore/internal/http/handlers"
	applog "bookstore/internal/log"
	"bookstore/internal/repos"
)

const seedPassword = "Passw0rd!"

// lockedBuffer is shared between the access logger and zerolog.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type logEntry struct {
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Path   string         `json:"path"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

func (b *lockedBuffer) entries() []logEntry {
	var out []logEntry
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func (b *lockedBuffer) find(kind, action string) (logEntry, bool) {
	for _, e := range b.entries() {
		if e.Kind == kind && e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	logs *lockedBuffer
}

// newTestEnv builds the real app over a seeded in-memory database. Logging
// is redirected before the app exists so the access logger picks it up.
func newTestEnv(t *testing.T, opts handlers.Options) *testEnv {
	t.Helper()
	logs := &lockedBuffer{}
	applog.Init(logs, "info", "json")
	t.Cleanup(func() { applog.Init(io.Discard, "info", "json") })

	cfg := config.Config{DBDSN: ":memory:", JWTSecret: "test-secret", JWTTTL: time.Hour}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if opts.LoginMax == 0 {
		opts.LoginMax = 50
	}
	app := handlers.NewApp(handlers.NewDeps(db, cfg), opts)
	return &testEnv{app: app, db: db, logs: logs}
}

// call sends a JSON request and returns the status and raw body.
func (e *testEnv) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			r = strings.NewReader(v)
		case []byte:
			r = bytes.NewReader(v)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": seedPassword,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, status, body)
	}
	var sess struct {
		Token string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &sess); err != nil || sess.Token == "" {
		t.Fatalf("login %s: no token in %s", email, body)
	}
	return sess.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
