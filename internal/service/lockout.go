package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-reservation/internal/metrics"
	"github.com/iliyamo/theatre-reservation/internal/queue"
	"github.com/iliyamo/theatre-reservation/internal/throttle"
)

// LockoutPublisher receives lock events.
type LockoutPublisher interface {
	LoginLocked(ctx context.Context, ev queue.LoginLockedEvent) error
}

// LockoutListener returns the throttle notifier used by the server: it
// logs the lockout, counts it, and publishes an auth.lockout event when pub
// is non-nil.
func LockoutListener(log logrus.FieldLogger, pub LockoutPublisher) throttle.Notifier {
	ns := throttle.Notifiers{
		throttle.NotifierFunc(func(_ context.Context, email string, d time.Duration) {
			log.WithField("email", email).Warnf("email %s has been blocked for %d seconds", email, int(d.Seconds()))
		}),
		throttle.NotifierFunc(func(context.Context, string, time.Duration) {
			metrics.LoginLockouts.Inc()
		}),
	}
	if pub != nil {
		ns = append(ns, throttle.NotifierFunc(func(_ context.Context, email string, d time.Duration) {
			ev := queue.LoginLockedEvent{
				EventID:     uuid.NewString(),
				Email:       email,
				LockSeconds: int(d.Seconds()),
				LockedAt:    time.Now().UTC().Truncate(time.Second),
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := pub.LoginLocked(ctx, ev); err != nil {
					log.WithError(err).Warn("lockout event not published")
				}
			}()
		}))
	}
	return ns
}
