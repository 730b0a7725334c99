package throttle

import (
	"context"
	"time"
)

// Store is the expiring key/value backend of the throttle.
type Store interface {
	// Incr atomically increments key and resets its TTL to ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Get returns the counter stored at key, or 0 when absent.
	Get(ctx context.Context, key string) (int64, error)
	// Set writes a marker at key that expires after ttl.
	Set(ctx context.Context, key string, ttl time.Duration) error
	// TTL reports the remaining lifetime of key and whether it exists.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	Del(ctx context.Context, keys ...string) error
}
