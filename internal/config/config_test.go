package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadThrottleConfig_Defaults(t *testing.T) {
	cfg := LoadThrottleConfig()

	assert.Equal(t, 3, cfg.Threshold)
	assert.Equal(t, 180*time.Second, cfg.Window)
	assert.Equal(t, 90*time.Second, cfg.LockDuration)
	assert.Equal(t, "login", cfg.Prefix)
}

func TestLoadThrottleConfig_FromEnv(t *testing.T) {
	t.Setenv("LOGIN_FAIL_THRESHOLD", "5")
	t.Setenv("LOGIN_FAIL_WINDOW", "1m")
	t.Setenv("LOGIN_LOCK_DURATION", "bogus")

	cfg := LoadThrottleConfig()

	assert.Equal(t, 5, cfg.Threshold)
	assert.Equal(t, time.Minute, cfg.Window)
	assert.Equal(t, 90*time.Second, cfg.LockDuration, "unparsable duration falls back to default")
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head,,")

	cfg := LoadCacheConfig()

	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}
