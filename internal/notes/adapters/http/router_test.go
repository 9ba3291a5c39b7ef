package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "nlnotes/internal/notes/adapters/http"
	"nlnotes/internal/notes/adapters/http/middleware"
	"nlnotes/internal/notes/adapters/http/notes"
	"nlnotes/internal/notes/adapters/memory"
	adapters "nlnotes/internal/notes/adapters/services"
	"nlnotes/internal/notes/app"
	"nlnotes/internal/notes/config"
	"nlnotes/internal/notes/domain/entities"
	"nlnotes/internal/notes/ports/services"
)

type stubParser map[string]entities.Intent

func (p stubParser) Parse(_ context.Context, text string) (entities.Intent, error) {
	intent, ok := p[text]
	if !ok {
		return entities.Intent{}, fmt.Errorf("%w: model returned no action", services.ErrParseFailed)
	}
	return intent, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	t   *testing.T
	app *fiber.App
}

func newTestEnv(t *testing.T, parser stubParser, health httpadapter.HealthChecker) *testEnv {
	t.Helper()

	store := memory.NewStore()
	auth := app.NewAuthUseCase(store.Users(), adapters.NewBcrypt(4), adapters.NewJWT("test-secret", time.Hour))

	cfg := &config.HTTPConfig{BodyLimit: 1 << 20, ReadTimeout: time.Second, WriteTimeout: time.Second}
	fiberApp := httpadapter.NewApp(cfg, httpadapter.Dependencies{
		Auth:     auth,
		Resolver: app.NewResolver(store),
		Parser:   parser,
		Health:   health,
	})

	return &testEnv{t: t, app: fiberApp}
}

func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second, FailOnTimeout: true})
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// signup регистрирует пользователя и возвращает токен доступа.
func (e *testEnv) signup(username string) string {
	e.t.Helper()

	status, _ := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": username, "password": "pw-" + username})
	require.Equal(e.t, http.StatusCreated, status)

	status, body := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": "pw-" + username})
	require.Equal(e.t, http.StatusOK, status)

	token, ok := body["access_token"].(string)
	require.True(e.t, ok)
	return token
}

func TestAuthRoutes(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	t.Run("register", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "alice", "password": "secret"})
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "user registered successfully", body["message"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "alice", "password": "other"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "username already exists", body["error"])
	})

	t.Run("register without password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "bob"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "username and password required", body["error"])
	})

	t.Run("login with wrong password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("login with unknown user", func(t *testing.T) {
		status, _ := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "nobody", "password": "x"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("login", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "secret"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "login successful", body["message"])
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["expires_at"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", user["username"])
		assert.NotNil(t, user["last_login"])
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("forgot password for unknown user", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/forgot_password", "", map[string]string{"username": "nobody", "new_password": "x"})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "user not found", body["error"])
	})

	t.Run("forgot password with the current password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/forgot_password", "", map[string]string{"username": "alice", "new_password": "secret"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "new password cannot be the same as your current (old) password", body["error"])
	})

	t.Run("forgot password without new password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/forgot_password", "", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "username and new_password are required", body["error"])
	})

	t.Run("forgot password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/auth/forgot_password", "", map[string]string{"username": "alice", "new_password": "fresh"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "password reset successfully", body["message"])

		status, _ = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "fresh"})
		assert.Equal(t, http.StatusOK, status)
		status, _ = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "secret"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestNotesRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	status, body := env.do(http.MethodGet, "/api/v1/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.ErrorNoAuthHeader, body["error"])

	status, body = env.do(http.MethodGet, "/api/v1/notes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.ErrorInvalidToken, body["error"])

	status, _ = env.do(http.MethodPost, "/api/v1/nl_query", "", map[string]string{"query": "list"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestNotesRoutes_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	token := env.signup("alice")

	status, body := env.do(http.MethodGet, "/api/v1/notes", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["notes"])

	status, body = env.do(http.MethodPost, "/api/v1/notes", token, map[string]string{"topic": "AI", "message": "notes"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "note created", body["message"])
	note, ok := body["note"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI", note["topic"])
	assert.Equal(t, "notes", note["message"])
	noteID := int64(note["note_id"].(float64))
	path := fmt.Sprintf("/api/v1/notes/%d", noteID)

	status, body = env.do(http.MethodPost, "/api/v1/notes", token, map[string]string{"topic": "Groceries"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "for create, both topic and message are required", body["error"])

	status, body = env.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["notes"], 1)

	status, body = env.do(http.MethodGet, "/api/v1/notes/search?q=NOTES", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notes"], 1)

	status, body = env.do(http.MethodGet, "/api/v1/notes/search?topic=groceries", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no matching notes found", body["message"])

	status, body = env.do(http.MethodPatch, path, token, map[string]string{"message": "updated"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "note updated", body["message"])
	updated := body["note"].(map[string]any)
	assert.Equal(t, "AI", updated["topic"])
	assert.Equal(t, "updated", updated["message"])

	status, body = env.do(http.MethodPut, path, token, map[string]string{"topic": "ML"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ML", body["note"].(map[string]any)["topic"])

	status, body = env.do(http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "note deleted", body["message"])
	assert.InDelta(t, float64(noteID), body["deleted_note_id"], 0)

	status, body = env.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "note not found", body["error"])

	status, body = env.do(http.MethodPatch, path, token, map[string]string{"message": "again"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "note not found", body["error"])
}

func TestNotesRoutes_InvalidNoteID(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	token := env.signup("alice")

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		status, body := env.do(method, "/api/v1/notes/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, status, method)
		assert.Equal(t, notes.ErrMsgInvalidNoteID, body["error"], method)
	}
}

func TestNotesRoutes_OwnerIsolation(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	alice := env.signup("alice")
	bob := env.signup("bob")

	status, body := env.do(http.MethodPost, "/api/v1/notes", alice, map[string]string{"topic": "secret", "message": "alice only"})
	require.Equal(t, http.StatusCreated, status)
	path := fmt.Sprintf("/api/v1/notes/%d", int64(body["note"].(map[string]any)["note_id"].(float64)))

	status, body = env.do(http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no matching notes found", body["message"])

	status, _ = env.do(http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(http.MethodGet, "/api/v1/notes", bob, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["notes"])

	status, body = env.do(http.MethodGet, "/api/v1/notes", alice, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notes"], 1)
}

func TestQueryRoute(t *testing.T) {
	parser := stubParser{
		"remember to buy milk": {Action: entities.ActionCreate, Topic: "Groceries", Message: "buy milk"},
		"show my notes":        {Action: entities.ActionList},
		"delete the taxes":     {Action: entities.ActionDelete, TargetTopic: "taxes"},
		"do a dance":           {Action: entities.Action("dance")},
		"a very long note":     {Action: entities.ActionCreate, Topic: strings.Repeat("t", entities.MaxTopicLength+1), Message: "m"},
	}
	env := newTestEnv(t, parser, nil)
	token := env.signup("alice")

	t.Run("create", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "remember to buy milk"})
		require.Equal(t, http.StatusOK, status)

		parsed := body["parsed_action"].(map[string]any)
		assert.Equal(t, "create", parsed["action"])
		assert.Equal(t, "Groceries", parsed["topic"])

		result := body["result"].(map[string]any)
		assert.Equal(t, "note created", result["message"])
	})

	t.Run("list", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "show my notes"})
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["result"].(map[string]any)["notes"], 1)
	})

	t.Run("locator misses", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "delete the taxes"})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "note not found", body["result"].(map[string]any)["error"])
	})

	t.Run("unknown action", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "do a dance"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["result"].(map[string]any)["error"], "unknown action")
	})

	t.Run("topic too long", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "a very long note"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, entities.ErrTopicTooLong.Error(), body["result"].(map[string]any)["error"])
	})

	t.Run("parse failure", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": "gibberish"})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.True(t, strings.HasPrefix(body["error"].(string), "could not understand request"))
	})

	t.Run("empty query", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/api/v1/nl_query", token, map[string]string{"query": ""})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, notes.ErrMsgQueryRequired, body["error"])
	})
}

func TestServiceRoutes(t *testing.T) {
	t.Run("healthz without checker", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		status, body := env.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("healthz with failing storage", func(t *testing.T) {
		env := newTestEnv(t, nil, pingFunc(func(context.Context) error { return errors.New("down") }))
		status, body := env.do(http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "unavailable", body["status"])
	})

	t.Run("metrics", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.do(http.MethodGet, "/healthz", "", nil)

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		require.NoError(t, err)
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "nlnotes_http_requests_total")
	})

	t.Run("unknown route", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		status, body := env.do(http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Route not found", body["error"])
	})

	t.Run("request id is echoed", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
		req.Header.Set(middleware.HeaderRequestID, "req-42")

		resp, err := env.app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "req-42", resp.Header.Get(middleware.HeaderRequestID))
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		result entities.Result
		want   int
	}{
		{"message", entities.MessageResult("ok"), http.StatusOK},
		{"notes", entities.NotesResult(nil), http.StatusOK},
		{"not found", entities.ErrorResult(entities.ErrNoteNotFound), http.StatusNotFound},
		{"validation", entities.ErrorResult(entities.ErrTopicAndMessageRequired), http.StatusBadRequest},
		{"storage", entities.StorageFailure(errors.New("conn refused")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notes.StatusFor(tt.result))
		})
	}
}
