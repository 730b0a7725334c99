package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps throttle keys in Redis so every server instance shares
// the same counters and locks.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *RedisStore) Set(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, 1, ttl).Err()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	// go-redis passes the -2 (missing) and -1 (no expiry) replies through
	// unscaled.
	switch {
	case d == -2:
		return 0, false, nil
	case d < 0:
		return 0, true, nil
	}
	return d, true, nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}
