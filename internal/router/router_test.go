package router

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
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
    "github.com/iliyamo/theatre-reservation/internal/service"
    "github.com/iliyamo/theatre-reservation/internal/testutil"
    "github.com/iliyamo/theatre-reservation/internal/throttle"
)

type api struct {
    t *testing.T
    e *echo.Echo
}

func newAPI(t *testing.T) *api {
    t.Helper()
    log := logrus.New()
    log.SetOutput(io.Discard)

    db := testutil.NewDB(t)
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    cfg := config.Config{JWTSecret: "router-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
    th := throttle.New(throttle.NewMemoryStore(nil), config.ThrottleConfig{
        Threshold: 3, Window: 3 * time.Minute, LockDuration: 90 * time.Second, Prefix: "login",
    }, service.LockoutListener(log, nil))

    admin := service.NewAuthService(cfg, db, th, log)
    require.NoError(t, admin.EnsureAdmin(context.Background(), "admin@example.com", "adminpass1"))

    e := New(Deps{
        Config: cfg,
        RateLimit: config.RateLimitConfig{
            Enabled: true, Capacity: 1000, RefillTokens: 100, RefillInterval: time.Second,
            TTL: time.Minute, KeyStrategy: "ip_user_route", Prefix: "rl",
        },
        Cache: config.CacheConfig{
            Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute,
            KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20,
        },
        DB:       db,
        Redis:    rdb,
        Throttle: th,
        Log:      log,
    })
    return &api{t: t, e: e}
}

func (a *api) call(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
    a.t.Helper()
    var rd io.Reader
    if body != nil {
        bs, err := json.Marshal(body)
        require.NoError(a.t, err)
        rd = bytes.NewReader(bs)
    }
    req := httptest.NewRequest(method, path, rd)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)

    out := map[string]any{}
    _ = json.Unmarshal(rec.Body.Bytes(), &out)
    return rec, out
}

func (a *api) login(email, password string) string {
    a.t.Helper()
    rec, body := a.call(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": email, "password": password})
    require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
    return body["access"].(map[string]any)["token"].(string)
}

func (a *api) register(email string) string {
    a.t.Helper()
    rec, body := a.call(http.MethodPost, "/v1/auth/register", "", echo.Map{"email": email, "password": "password1"})
    require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
    return body["access"].(map[string]any)["token"].(string)
}

func (a *api) create(token, path string, body any) uint64 {
    a.t.Helper()
    rec, out := a.call(http.MethodPost, path, token, body)
    require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
    return uint64(out["id"].(float64))
}

// schedule creates a 5x5 hall, a play and a performance tomorrow.
func (a *api) schedule(admin string) uint64 {
    hall := a.create(admin, "/v1/theatre-halls", echo.Map{"name": "Main", "rows": 5, "seats_in_row": 5})
    play := a.create(admin, "/v1/plays", echo.Map{"title": "Hamlet"})
    return a.create(admin, "/v1/performances", echo.Map{
        "play": play, "theatre_hall": hall, "show_time": time.Now().UTC().Add(48 * time.Hour),
    })
}

func TestHealthAndMetrics(t *testing.T) {
    a := newAPI(t)
    rec, _ := a.call(http.MethodGet, "/healthz", "", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())

    rec, _ = a.call(http.MethodGet, "/metrics", "", nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
    a := newAPI(t)
    rec, body := a.call(http.MethodGet, "/v1/plays", "", nil)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Equal(t, "unauthorized", body["error"])
}

func TestCatalogWritesNeedAdmin(t *testing.T) {
    a := newAPI(t)
    customer := a.register("c@example.com")

    rec, body := a.call(http.MethodPost, "/v1/genres", customer, echo.Map{"name": "Drama"})
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Equal(t, "forbidden", body["error"])

    admin := a.login("admin@example.com", "adminpass1")
    a.create(admin, "/v1/genres", echo.Map{"name": "Drama"})

    rec, _ = a.call(http.MethodGet, "/v1/genres", customer, nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), "Drama")
}

func TestCatalogCacheInvalidatedByWrite(t *testing.T) {
    a := newAPI(t)
    admin := a.login("admin@example.com", "adminpass1")

    rec, _ := a.call(http.MethodGet, "/v1/genres", admin, nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    rec, _ = a.call(http.MethodGet, "/v1/genres", admin, nil)
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

    a.create(admin, "/v1/genres", echo.Map{"name": "Comedy"})

    rec, _ = a.call(http.MethodGet, "/v1/genres", admin, nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Contains(t, rec.Body.String(), "Comedy")
}

func TestReservationFlow(t *testing.T) {
    a := newAPI(t)
    admin := a.login("admin@example.com", "adminpass1")
    perf := a.schedule(admin)
    alice := a.register("alice@example.com")
    bob := a.register("bob@example.com")

    rec, body := a.call(http.MethodPost, "/v1/reservations", alice, echo.Map{"tickets": []echo.Map{
        {"performance": perf, "row": 1, "seat": 1},
        {"performance": perf, "row": 1, "seat": 2},
    }})
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    resID := uint64(body["id"].(float64))
    tickets := body["tickets"].([]any)
    require.Len(t, tickets, 2)
    assert.Equal(t, "Hamlet", tickets[0].(map[string]any)["performance"].(map[string]any)["play_title"])

    rec, body = a.call(http.MethodPost, "/v1/reservations", bob, echo.Map{"tickets": []echo.Map{
        {"performance": perf, "row": 2, "seat": 1},
        {"performance": perf, "row": 1, "seat": 2},
    }})
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "seat_unavailable", body["error"])
    assert.EqualValues(t, 1, body["ticket_index"])

    rec, body = a.call(http.MethodPost, "/v1/reservations", bob, echo.Map{"tickets": []echo.Map{
        {"performance": perf, "row": 9, "seat": 1},
    }})
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "validation_error", body["error"])
    assert.Equal(t, "row", body["field"])
    assert.EqualValues(t, 0, body["ticket_index"])

    rec, body = a.call(http.MethodGet, fmt.Sprintf("/v1/performances/%d", perf), bob, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 23, body["available_tickets"])
    assert.Len(t, body["taken_places"], 2)

    rec, body = a.call(http.MethodGet, "/v1/reservations", alice, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 1, body["count"])

    rec, body = a.call(http.MethodGet, "/v1/reservations", bob, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 0, body["count"])

    rec, _ = a.call(http.MethodGet, fmt.Sprintf("/v1/reservations/%d", resID), alice, nil)
    assert.Equal(t, http.StatusOK, rec.Code)
    rec, body = a.call(http.MethodGet, fmt.Sprintf("/v1/reservations/%d", resID), bob, nil)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "not_found", body["error"])
}

func TestLoginLockout(t *testing.T) {
    a := newAPI(t)
    a.register("carol@example.com")

    for i := 0; i < 3; i++ {
        rec, body := a.call(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "carol@example.com", "password": "wrong-pass"})
        require.Equal(t, http.StatusUnauthorized, rec.Code)
        assert.Equal(t, "invalid_credentials", body["error"])
    }

    rec, body := a.call(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "carol@example.com", "password": "password1"})
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "login_locked", body["error"])
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRefreshAndLogout(t *testing.T) {
    a := newAPI(t)
    rec, body := a.call(http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "dan@example.com", "password": "password1"})
    require.Equal(t, http.StatusCreated, rec.Code)
    refresh := body["refresh"].(map[string]any)["token"].(string)

    rec, body = a.call(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
    require.Equal(t, http.StatusOK, rec.Code)
    rotated := body["refresh"].(map[string]any)["token"].(string)
    access := body["access"].(map[string]any)["token"].(string)

    rec, body = a.call(http.MethodGet, "/v1/me", access, nil)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "dan@example.com", body["email"])

    rec, _ = a.call(http.MethodPost, "/v1/auth/logout", "", echo.Map{"refresh_token": rotated})
    assert.Equal(t, http.StatusNoContent, rec.Code)

    rec, _ = a.call(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": rotated})
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
