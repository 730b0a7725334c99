package middleware

import (
    "io"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theatre-reservation/internal/config"
    "github.com/iliyamo/theatre-reservation/internal/utils"
)

const testSecret = "middleware-secret"

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func quietLogger() *logrus.Logger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, nil)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl",
    }
    e := echo.New()
    e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, rdb, quietLogger()))

    assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
    rec := do(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    rec = do(e, http.MethodGet, "/ping", "")
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
    assert.Contains(t, rec.Body.String(), "too_many_requests")
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
    mr, rdb := newRedis(t)
    mr.Close()
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1,
        RefillInterval: time.Second, TTL: time.Second, Prefix: "rl"}
    e := echo.New()
    e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(cfg, rdb, quietLogger()))

    for i := 0; i < 3; i++ {
        assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/ping", "").Code)
    }
}

func TestBuildRateKey_UsesUser(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
    c.SetPath("/x")
    cfg := config.RateLimitConfig{KeyStrategy: "user_route", Prefix: "rl"}

    assert.Equal(t, "rl:user:anon:route:GET /x", buildRateKey(cfg, c))
    c.Set("user_id", uint64(42))
    assert.Equal(t, "rl:user:42:route:GET /x", buildRateKey(cfg, c))
}

func TestResponseCache_HitAndInvalidate(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{http.MethodGet: true},
        TTL:         time.Minute,
        KeyStrategy: "route_query",
        Prefix:      "cache",
    }
    calls := 0
    e := echo.New()
    g := e.Group("/genres", NewResponseCache(cfg, rdb, quietLogger()))
    g.GET("", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"calls": calls})
    })
    g.POST("", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

    rec := do(e, http.MethodGet, "/genres", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    rec = do(e, http.MethodGet, "/genres", "")
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"calls":1}`, rec.Body.String())
    assert.Equal(t, 1, calls)

    assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/genres", "").Code)

    rec = do(e, http.MethodGet, "/genres", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"calls":2}`, rec.Body.String())
}

func TestResponseCache_SkipsErrors(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true},
        TTL: time.Minute, Prefix: "cache"}
    e := echo.New()
    e.GET("/missing", func(c echo.Context) error {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
    }, NewResponseCache(cfg, rdb, quietLogger()))

    do(e, http.MethodGet, "/missing", "")
    rec := do(e, http.MethodGet, "/missing", "")
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": []string{"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
    require.NoError(t, err)

    status, got, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", got.Get("Content-Type"))
    assert.Equal(t, `{"a":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func protected() *echo.Echo {
    e := echo.New()
    g := e.Group("", JWTAuth(testSecret))
    g.GET("/me", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"id": c.Get("user_id"), "role": c.Get("role")})
    })
    g.POST("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
        RequireRole("ADMIN"))
    return e
}

func TestJWTAuth(t *testing.T) {
    e := protected()

    rec := do(e, http.MethodGet, "/me", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Contains(t, rec.Body.String(), "unauthorized")

    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", "garbage").Code)

    tok, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 5)
    require.NoError(t, err)
    rec = do(e, http.MethodGet, "/me", tok.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":7,"role":"CUSTOMER"}`, rec.Body.String())

    other, err := utils.NewAccessToken("other-secret", 7, "CUSTOMER", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/me", other.Token).Code)
}

func TestRequireRole(t *testing.T) {
    e := protected()

    customer, err := utils.NewAccessToken(testSecret, 1, "CUSTOMER", 5)
    require.NoError(t, err)
    rec := do(e, http.MethodPost, "/admin", customer.Token)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), "forbidden")

    admin, err := utils.NewAccessToken(testSecret, 2, "ADMIN", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/admin", admin.Token).Code)
}
