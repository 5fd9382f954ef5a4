package routes

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/app"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/repositories/postgres"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "routes-test-secret",
			JWTIssuer:  "readers-hub",
			TokenTTL:   time.Hour,
			CookieName: "auth_token",
			BcryptCost: bcrypt.MinCost,
		},
		RateLimit: config.RateLimitConfig{
			Requests:     100,
			Window:       time.Minute,
			AuthRequests: 2,
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: []string{"http://localhost:3000"},
		},
		Pagination:    config.PaginationConfig{DefaultPageSize: 5, MaxPageSize: 100},
		Observability: config.ObservabilityConfig{LogLevel: "info", MetricsEnabled: true},
	}
}

type harness struct {
	deps    *app.Dependencies
	handler http.Handler
	sql     sqlmock.Sqlmock
	redis   *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := zap.NewNop()
	factory := postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(sqlDB, logger), logger)
	deps := app.Build(testConfig(), factory, rdb, logger)
	t.Cleanup(func() { _ = deps.Close(t.Context()) })

	return &harness{deps: deps, handler: SetupRoutes(deps), sql: mock, redis: mr}
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestReadyz(t *testing.T) {
	h := newHarness(t)

	h.sql.ExpectPing()
	h.sql.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	w := h.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	h.redis.SetError("LOADING")
	h.sql.ExpectPing()
	h.sql.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	w = h.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodPost, "/api/v1/books"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/admin/roles"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := h.do(tc.method, tc.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPostReadsArePublic(t *testing.T) {
	h := newHarness(t)
	h.sql.ExpectQuery(`SELECT COUNT\(\*\) FROM posts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	h.sql.ExpectQuery("FROM posts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "username", "title", "content", "created_at", "updated_at"}))

	w := h.do(http.MethodGet, "/api/v1/posts", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)
	assert.NoError(t, h.sql.ExpectationsWereMet())
}

func TestUnknownTagIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.sql.ExpectQuery("FROM tags WHERE slug").
		WithArgs("no-such-tag").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

	w := h.do(http.MethodGet, "/api/v1/tags/no-such-tag/posts", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, h.sql.ExpectationsWereMet())
}

func TestTokenForDeletedUser(t *testing.T) {
	h := newHarness(t)
	token, _, err := h.deps.Tokens.Issue(uuid.New(), "ghost")
	require.NoError(t, err)
	h.sql.ExpectQuery("FROM users").WillReturnError(sql.ErrNoRows)

	w := h.do(http.MethodGet, "/api/v1/users/me", "", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (h *harness) expectActor(id uuid.UUID, role string, perms string) {
	now := time.Now()
	h.sql.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "bio", "role", "created_at", "updated_at", "permissions",
		}).AddRow(id.String(), "reader", "reader@example.com", "hash", "", role, now, now, perms))
}

func TestBookWritesRequirePermissionFirst(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "create with unknown author", method: http.MethodPost, path: "/api/v1/books", body: `{"author":"nope"}`},
		{name: "create with broken json", method: http.MethodPost, path: "/api/v1/books", body: `{`},
		{name: "update malformed id", method: http.MethodPut, path: "/api/v1/books/not-a-uuid", body: `{"title":"x"}`},
		{name: "delete malformed id", method: http.MethodDelete, path: "/api/v1/books/not-a-uuid"},
		{name: "delete unknown book", method: http.MethodDelete, path: "/api/v1/books/" + uuid.New().String()},
		{name: "create author", method: http.MethodPost, path: "/api/v1/authors", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			id := uuid.New()
			token, _, err := h.deps.Tokens.Issue(id, "reader")
			require.NoError(t, err)
			h.expectActor(id, "member", "{}")

			w := h.do(tt.method, tt.path, tt.body, token)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.NoError(t, h.sql.ExpectationsWereMet())
		})
	}
}

func TestBookWriteWithPermissionReachesHandler(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	token, _, err := h.deps.Tokens.Issue(id, "reader")
	require.NoError(t, err)
	h.expectActor(id, "member", "{can_delete_book}")

	w := h.do(http.MethodDelete, "/api/v1/books/not-a-uuid", "", token)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		w := h.do(http.MethodPost, "/api/v1/auth/login", `{}`, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := h.do(http.MethodPost, "/api/v1/auth/login", `{}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "throttled")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/healthz", "", "")

	w := h.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "readers_hub_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/nope", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint not found")
}
