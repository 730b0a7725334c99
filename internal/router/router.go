package router // package router wires handlers, services and middleware into an echo instance

import (
    "database/sql"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/config"
    "github.com/iliyamo/theatre-reservation/internal/handler"
    "github.com/iliyamo/theatre-reservation/internal/middleware"
    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/service"
    "github.com/iliyamo/theatre-reservation/internal/throttle"
)

// Deps carries everything New needs.  Redis and Publisher are optional;
// without Redis the rate limit and response cache are disabled.
type Deps struct {
    Config    config.Config
    RateLimit config.RateLimitConfig
    Cache     config.CacheConfig
    DB        *sql.DB
    Redis     *redis.Client
    Throttle  *throttle.Throttle
    Publisher service.ReservationPublisher
    Log       logrus.FieldLogger
    Now       func() time.Time
}

// Handlers groups the HTTP handlers built from Deps.
type Handlers struct {
    Auth         *handler.AuthHandler
    Catalog      *handler.CatalogHandler
    Performances *handler.PerformanceHandler
    Reservations *handler.ReservationHandler
}

// NewHandlers builds the services and their handlers.
func NewHandlers(d Deps) Handlers {
    now := d.Now
    if now == nil {
        now = time.Now
    }
    opts := []service.ReservationOption{service.WithClock(now), service.WithLogger(d.Log)}
    if d.Publisher != nil {
        opts = append(opts, service.WithPublisher(d.Publisher))
    }
    return Handlers{
        Auth:         handler.NewAuthHandler(service.NewAuthService(d.Config, d.DB, d.Throttle, d.Log), d.Log),
        Catalog:      handler.NewCatalogHandler(service.NewCatalogService(d.DB), d.Log),
        Performances: handler.NewPerformanceHandler(service.NewPerformanceService(d.DB, now), d.Log),
        Reservations: handler.NewReservationHandler(service.NewReservationService(d.DB, opts...), d.Log),
    }
}

// New returns a configured echo instance serving the whole API.
func New(d Deps) *echo.Echo {
    e := echo.New()
    e.HideBanner = true
    e.HidePort = true

    e.Use(echomw.Recover())
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(middleware.RequestLogger(d.Log))
    e.Use(middleware.Metrics())

    RegisterRoutes(e)

    h := NewHandlers(d)
    RegisterAuth(e, h.Auth)

    v1 := e.Group("/v1",
        middleware.JWTAuth(d.Config.JWTSecret),
        middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
    )
    v1.GET("/me", h.Auth.Me)

    cache := middleware.NewResponseCache(d.Cache, d.Redis, d.Log)
    RegisterCatalog(v1, h.Catalog, cache)
    RegisterPerformances(v1, h.Performances)
    RegisterReservations(v1, h.Reservations)
    return e
}

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the token endpoints under /v1/auth.  Login is
// guarded by the throttle inside AuthService rather than by middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)
}

func adminOnly() echo.MiddlewareFunc {
    return middleware.RequireRole(model.RoleAdmin)
}
