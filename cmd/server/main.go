package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/database"
	"github.com/iliyamo/theatre-reservation/internal/logger"
	"github.com/iliyamo/theatre-reservation/internal/queue"
	"github.com/iliyamo/theatre-reservation/internal/router"
	"github.com/iliyamo/theatre-reservation/internal/service"
	"github.com/iliyamo/theatre-reservation/internal/throttle"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database: connect failed")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db, database.MySQL); err != nil {
			log.WithError(err).Fatal("database: migrate failed")
		}
	}

	rdb := config.NewRedisClient()
	var store throttle.Store
	if rdb != nil {
		defer rdb.Close()
		store = throttle.NewRedisStore(rdb)
	} else {
		log.Warn("redis unavailable: rate limit and cache disabled, login throttle kept in memory")
		store = throttle.NewMemoryStore(nil)
	}

	deps := router.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		DB:        db,
		Redis:     rdb,
		Log:       log,
	}
	var lockouts service.LockoutPublisher
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log)
		deps.Publisher = pub
		lockouts = pub
	}
	deps.Throttle = throttle.New(store, config.LoadThrottleConfig(), service.LockoutListener(log, lockouts))

	if cfg.AdminEmail != "" {
		admin := service.NewAuthService(cfg, db, deps.Throttle, log)
		if err := admin.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.WithError(err).Fatal("seed admin failed")
		}
	}

	e := router.New(deps)
	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
