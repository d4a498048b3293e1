package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-reservation/internal/config"
	"github.com/iliyamo/event-reservation/internal/logging"
	"github.com/iliyamo/event-reservation/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, userID uint64, role string) string {
	tok, err := utils.NewAccessToken(secret, userID, role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func whoAmI(c echo.Context) error {
	id, ok := UserID(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": Role(c)})
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, JWTAuth(secret))
	e.GET("/admin", whoAmI, JWTAuth(secret), RequireRole(utils.RoleAdmin))

	do := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set(echo.HeaderAuthorization, auth)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := do("/me", bearer(t, 9, utils.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"role":"CUSTOMER"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "Bearer garbage").Code)
	assert.Equal(t, http.StatusForbidden, do("/admin", bearer(t, 9, utils.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, do("/admin", bearer(t, 1, utils.RoleAdmin)).Code)
}

func TestUserIDWithoutAuth(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := UserID(c)
	assert.False(t, ok)
	assert.Equal(t, "", Role(c))
}

func TestRequestLoggerCorrelationID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = logging.CorrelationID(c.Request().Context())
		return c.String(http.StatusOK, "pong")
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCacheKeyFrom(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "route_query"}
	newCtx := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/api/events-with-showings")
		return c
	}

	a := cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=1"), 0)
	assert.Equal(t, a, cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=1"), 0))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=2"), 0))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=1"), 1))

	cfg.KeyStrategy = "route"
	assert.Equal(t,
		cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=1"), 3),
		cacheKeyFrom(cfg, newCtx("/api/events-with-showings?x=2"), 3))
}

func TestResponseCacheDisabledPassesThrough(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	assert.False(t, rc.Enabled())
	assert.NoError(t, rc.Purge(context.Background()))

	e := echo.New()
	calls := 0
	e.GET("/c", func(c echo.Context) error { calls++; return c.String(http.StatusOK, "x") }, rc.Middleware())
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/c", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

// REDIS_TEST_ADDR points at a disposable Redis, e.g. "localhost:6379".
func TestResponseCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "test-" + time.Now().Format("150405.000000")
	rc := NewResponseCache(config.CacheConfig{
		Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
		KeyStrategy: "route_query", Prefix: prefix, MaxBodyBytes: 1 << 16,
	}, rdb)

	e := echo.New()
	calls := 0
	e.GET("/catalog", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, rc.Middleware())
	e.POST("/reserve", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, rc.PurgeOnSuccess())

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))
		return rec
	}

	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get()
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reserve", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	third := get()
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}
