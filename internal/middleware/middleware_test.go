package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/device-ops-dashboard/internal/config"
	"github.com/iliyamo/device-ops-dashboard/internal/model"
	"github.com/iliyamo/device-ops-dashboard/internal/repository"
)

const secret = "test-secret"

func token(t *testing.T, sub string, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func ok(c echo.Context) error { return c.String(http.StatusOK, UserID(c)) }

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	h := JWTAuth(secret)(ok)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, "u1", secret)) }, http.StatusOK, "u1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t, "u2", secret)}) }, http.StatusOK, "u2"},
		{"wrong key", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, "u1", "other")) }, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			require.NoError(t, h(e.NewContext(req, rec)))
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

type stubProfiles map[string]*model.Profile

func (s stubProfiles) Profile(_ context.Context, id string) (*model.Profile, error) {
	p, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func TestGuardArea(t *testing.T) {
	profiles := stubProfiles{
		"admin":    {UserID: "admin", State: model.Approved{Role: model.RoleAdmin, Active: true}},
		"manager":  {UserID: "manager", State: model.Approved{Role: model.RoleRegionalManager, Active: true}},
		"engineer": {UserID: "engineer", State: model.Approved{Role: model.RoleFieldEngineer, Active: true}},
		"off":      {UserID: "off", State: model.Approved{Role: model.RoleAdmin, Active: false}},
		"pending":  {UserID: "pending", State: model.Pending{}},
		"rejected": {UserID: "rejected", State: model.Rejected{}},
	}
	g := NewGuard(secret, profiles)
	admin := g.Area("", model.RoleAdmin)(ok)
	engineer := g.Area("/admin/dashboard", model.RoleFieldEngineer)(ok)

	cases := []struct {
		name     string
		h        echo.HandlerFunc
		user     string
		status   int
		location string
		body     string
	}{
		{"no session", admin, "", http.StatusTemporaryRedirect, "/login", ""},
		{"unknown profile", admin, "ghost", http.StatusTemporaryRedirect, "/login", ""},
		{"admin allowed", admin, "admin", http.StatusOK, "", "admin"},
		{"manager sent home", admin, "manager", http.StatusTemporaryRedirect, "/manager/dashboard", ""},
		{"engineer sent home", admin, "engineer", http.StatusTemporaryRedirect, "/engineer/dashboard", ""},
		{"engineer area fallback", engineer, "manager", http.StatusTemporaryRedirect, "/admin/dashboard", ""},
		{"deactivated", admin, "off", http.StatusForbidden, "", "Account is deactivated"},
		{"pending", admin, "pending", http.StatusForbidden, "", "Application under process"},
		{"rejected", engineer, "rejected", http.StatusForbidden, "", "Application rejected"},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
			if tc.user != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token(t, tc.user, secret)})
			}
			rec := httptest.NewRecorder()
			require.NoError(t, tc.h(e.NewContext(req, rec)))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get("Location"))
			if tc.body != "" {
				assert.Contains(t, rec.Body.String(), tc.body)
			}
		})
	}
}

func TestGuardDashboard(t *testing.T) {
	g := NewGuard(secret, stubProfiles{
		"m": {UserID: "m", State: model.Approved{Role: model.RoleRegionalManager, Active: true}},
	})
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "m", secret))
	dest, found := g.Dashboard(e.NewContext(req, httptest.NewRecorder()))
	assert.True(t, found)
	assert.Equal(t, "/manager/dashboard", dest)

	_, found = g.Dashboard(e.NewContext(httptest.NewRequest(http.MethodGet, "/login", nil), httptest.NewRecorder()))
	assert.False(t, found)
}

func newRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestResponseCache(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 10}

	e := echo.New()
	calls := 0
	e.GET("/api/inventory", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, ResponseCache(cfg, rdb, zap.NewNop()))

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inventory", nil))
		return rec
	}
	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "cache"}

	e := echo.New()
	calls := 0
	e.GET("/api/demo", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "boom"})
	}, ResponseCache(cfg, rdb, zap.NewNop()))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/demo", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestCacheKeyPerUser(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query_user"}
	ctx := func(user string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/demo?x=1", nil), httptest.NewRecorder())
		c.SetPath("/api/demo")
		if user != "" {
			c.Set(ctxUserID, user)
		}
		return c
	}
	assert.NotEqual(t, cacheKey(cfg, ctx("a")), cacheKey(cfg, ctx("b")))
	cfg.KeyStrategy = "route_query"
	assert.Equal(t, cacheKey(cfg, ctx("a")), cacheKey(cfg, ctx("b")))
}

func TestRateLimit(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "rl"}

	e := echo.New()
	e.POST("/admin/devices", ok, RateLimit(cfg, rdb, zap.NewNop()))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		e.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/admin/devices", nil))
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", ok,
		ResponseCache(config.CacheConfig{Enabled: true}, nil, zap.NewNop()),
		RateLimit(config.RateLimitConfig{Enabled: false}, nil, zap.NewNop()))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS([]string{"https://ops.example.com"}))
	e.GET("/api/demo-sessions", ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/demo-sessions", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/demo-sessions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
