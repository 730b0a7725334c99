package config

import "time"

// ThrottleConfig controls the login failure throttle.  Threshold failed
// logins for one email inside Window lock that email for LockDuration.
type ThrottleConfig struct {
	Threshold    int
	Window       time.Duration
	LockDuration time.Duration
	Prefix       string
}

func LoadThrottleConfig() ThrottleConfig {
	cfg := ThrottleConfig{
		Threshold:    envInt("LOGIN_FAIL_THRESHOLD", 3),
		Window:       envDur("LOGIN_FAIL_WINDOW", 180*time.Second),
		LockDuration: envDur("LOGIN_LOCK_DURATION", 90*time.Second),
		Prefix:       envStr("LOGIN_THROTTLE_PREFIX", "login"),
	}
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	return cfg
}
