package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/theatre-reservation/internal/logger"
	"github.com/iliyamo/theatre-reservation/internal/queue"
)

// The consumer appends reservation.created and auth.lockout events to
// EVENTS_LOG (default logs/events.log).
func main() {
	_ = godotenv.Load()
	log := logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	if url == "" {
		log.Fatal("missing required env var: RABBITMQ_URL")
	}

	path := os.Getenv("EVENTS_LOG")
	if path == "" {
		path = filepath.Join("logs", "events.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.WithError(err).Fatal("event-consumer: cannot create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.WithError(err).Fatal("event-consumer: cannot open events log")
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("file", path).Info("event-consumer: started")
	if err := queue.NewConsumer(url, log, f).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("event-consumer: stopped")
	}
}
