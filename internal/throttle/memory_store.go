package throttle

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	n       int64
	expires time.Time
}

// MemoryStore is a process-local Store used when Redis is unavailable.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memEntry
}

// NewMemoryStore returns a MemoryStore.  now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, data: map[string]memEntry{}}
}

// live returns the entry at key if it has not expired.  Callers hold mu.
func (s *MemoryStore) live(key string, now time.Time) (memEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return memEntry{}, false
	}
	if !now.Before(e.expires) {
		delete(s.data, key)
		return memEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, _ := s.live(key, now)
	e.n++
	e.expires = now.Add(ttl)
	s.data[key] = e
	return e.n, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.live(key, s.now())
	return e.n, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memEntry{n: 1, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.live(key, now)
	if !ok {
		return 0, false, nil
	}
	return e.expires.Sub(now), true, nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}
