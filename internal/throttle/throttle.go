// Package throttle implements the login failure throttle.  Each identity
// (a normalised email) is Clear, Accumulating failures inside a fixed
// window, or Locked until the lock key expires in the Store.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/theatre-reservation/internal/config"
)

// ErrLocked matches every *LockedError.
var ErrLocked = errors.New("login temporarily locked")

// LockedError reports that an identity is locked and for how much longer.
type LockedError struct {
	Email      string
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("login for %s locked, retry in %s", e.Email, e.RetryAfter)
}

func (e *LockedError) Is(target error) bool { return target == ErrLocked }

// State is the throttle state of one identity.
type State int

const (
	Clear State = iota
	Accumulating
	Locked
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Locked:
		return "locked"
	default:
		return "clear"
	}
}

// Status is a snapshot of one identity.  Failures is set while
// Accumulating; RetryAfter while Locked.
type Status struct {
	State      State
	Failures   int
	RetryAfter time.Duration
}

// Notifier is told when an identity becomes locked.
type Notifier interface {
	Locked(ctx context.Context, email string, lockDuration time.Duration)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, email string, lockDuration time.Duration)

func (f NotifierFunc) Locked(ctx context.Context, email string, d time.Duration) { f(ctx, email, d) }

// Notifiers fans a lock event out to every listener in order.
type Notifiers []Notifier

func (ns Notifiers) Locked(ctx context.Context, email string, d time.Duration) {
	for _, n := range ns {
		if n != nil {
			n.Locked(ctx, email, d)
		}
	}
}

// Throttle guards credential checks.  It holds no per-identity state of its
// own; everything lives in the Store and expires through key TTLs.
type Throttle struct {
	store    Store
	cfg      config.ThrottleConfig
	notifier Notifier
}

// New builds a Throttle.  notifier may be nil.
func New(store Store, cfg config.ThrottleConfig, notifier Notifier) *Throttle {
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "login"
	}
	return &Throttle{store: store, cfg: cfg, notifier: notifier}
}

func normalize(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (t *Throttle) failKey(email string) string  { return t.cfg.Prefix + "_fail_" + email }
func (t *Throttle) blockKey(email string) string { return t.cfg.Prefix + "_block_" + email }

// Check returns a *LockedError while email is locked and nil otherwise.
func (t *Throttle) Check(ctx context.Context, email string) error {
	email = normalize(email)
	left, ok, err := t.store.TTL(ctx, t.blockKey(email))
	if err != nil {
		return fmt.Errorf("throttle check: %w", err)
	}
	if ok {
		return &LockedError{Email: email, RetryAfter: left}
	}
	return nil
}

// Fail records one failed login.  The failure that reaches the threshold
// writes the lock key, clears the counter and notifies listeners.
func (t *Throttle) Fail(ctx context.Context, email string) (Status, error) {
	email = normalize(email)
	if left, ok, err := t.store.TTL(ctx, t.blockKey(email)); err != nil {
		return Status{}, fmt.Errorf("throttle fail: %w", err)
	} else if ok {
		return Status{State: Locked, RetryAfter: left}, nil
	}

	n, err := t.store.Incr(ctx, t.failKey(email), t.cfg.Window)
	if err != nil {
		return Status{}, fmt.Errorf("throttle fail: %w", err)
	}
	if int(n) < t.cfg.Threshold {
		return Status{State: Accumulating, Failures: int(n)}, nil
	}

	if err := t.store.Set(ctx, t.blockKey(email), t.cfg.LockDuration); err != nil {
		return Status{}, fmt.Errorf("throttle lock: %w", err)
	}
	if err := t.store.Del(ctx, t.failKey(email)); err != nil {
		return Status{}, fmt.Errorf("throttle lock: %w", err)
	}
	if t.notifier != nil {
		t.notifier.Locked(ctx, email, t.cfg.LockDuration)
	}
	return Status{State: Locked, RetryAfter: t.cfg.LockDuration}, nil
}

// Succeed clears the failure counter after a successful login.
func (t *Throttle) Succeed(ctx context.Context, email string) error {
	if err := t.store.Del(ctx, t.failKey(normalize(email))); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

// State reports the current status of email.
func (t *Throttle) State(ctx context.Context, email string) (Status, error) {
	email = normalize(email)
	left, ok, err := t.store.TTL(ctx, t.blockKey(email))
	if err != nil {
		return Status{}, err
	}
	if ok {
		return Status{State: Locked, RetryAfter: left}, nil
	}
	n, err := t.store.Get(ctx, t.failKey(email))
	if err != nil {
		return Status{}, err
	}
	if n > 0 {
		return Status{State: Accumulating, Failures: int(n)}, nil
	}
	return Status{State: Clear}, nil
}
