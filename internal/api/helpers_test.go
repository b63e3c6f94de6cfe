package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenitiumdev/project-tracker/internal/audit"
	"github.com/cenitiumdev/project-tracker/internal/auth"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/config"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/database"
	"github.com/cenitiumdev/project-tracker/internal/infrastructure/logging"
	"github.com/cenitiumdev/project-tracker/internal/project"
	_ "github.com/cenitiumdev/project-tracker/migrations" // registers the schema
)

const (
	testSecret   = "api-test-secret-key-at-least-32-chars"
	testPassword = "correct-horse-battery"
)

// syncBuffer is a log sink shared by the handler and audit goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	codec   *auth.TokenCodec
	logs    *syncBuffer
}

// newTestEnv builds a fully wired server over a fresh database, with the
// audit writer running.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "api-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	logs := &syncBuffer{}
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", logs)

	codec, err := auth.NewTokenCodec(testSecret, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}

	accounts := auth.NewAccountRepository(db.DB)
	srv, err := New(Deps{
		Config:        config.APIConfig{Host: "127.0.0.1"},
		Logger:        logger,
		DB:            db,
		Accounts:      accounts,
		Authenticator: auth.NewAuthenticator(accounts),
		Registrar:     auth.NewRegistrar(accounts, auth.DefaultPasswordPolicy),
		Codec:         codec,
		Filter:        auth.NewIdentityFilter(codec, accounts, logger),
		Projects:      project.NewService(project.NewSQLiteRepository(db), nil, logger),
		Audit:         audit.NewSQLiteRepository(db.DB),
		Version:       "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	auditCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.drainAuditLog(auditCtx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testEnv{srv: srv, handler: srv.buildRouter(), codec: codec, logs: logs}
}

// do sends a request with an optional bearer token and JSON body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its ID.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": testPassword,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body.String())
	}

	var acc auth.Account
	decode(t, w, &acc)
	return acc.ID
}

// login returns a bearer token for username.
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, w.Code, w.Body.String())
	}

	var resp loginResponse
	decode(t, w, &resp)
	return resp.AccessToken
}

// signUp registers and logs in.
func (e *testEnv) signUp(t *testing.T, username string) (accountID, token string) {
	t.Helper()
	accountID = e.register(t, username)
	return accountID, e.login(t, username)
}

func (e *testEnv) createProject(t *testing.T, token, name string) project.Project {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/projects", token, map[string]string{
		"name":        name,
		"description": "test project",
		"start_date":  "2026-01-01",
		"end_date":    "2026-06-30",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", w.Code, w.Body.String())
	}

	var p project.Project
	decode(t, w, &p)
	return p
}

func (e *testEnv) createTask(t *testing.T, token, projectID string, body map[string]string) project.Task {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/projects/"+projectID+"/tasks", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", w.Code, w.Body.String())
	}

	var task project.Task
	decode(t, w, &task)
	return task
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e Error
	decode(t, w, &e)
	return e.Code
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
