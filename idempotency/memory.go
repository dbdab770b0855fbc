package idempotency

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

// MemoryStore is the process-local Store variant: a mutex-guarded map from key
// to expiry timestamp. A background sweep removes expired entries on a fixed
// interval; Has additionally expires lazily on access, so correctness does not
// depend on sweep timing. Has and Set never fail.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time

	defaultTTL    time.Duration
	sweepInterval time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithMemoryTTL sets the record lifetime applied when Set receives ttl <= 0
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithSweepInterval sets how often the background sweep removes expired
// entries (default 60s). The sweep is best-effort cleanup, not a correctness
// requirement.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// NewMemoryStore creates a local in-memory store and starts its sweep goroutine.
func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:       make(map[string]time.Time),
		defaultTTL:    DefaultTTL,
		sweepInterval: defaultSweepInterval,
		stop:          make(chan struct{}),
	}
	for _, o := range options {
		o(s)
	}
	go s.sweep()
	return s
}

// Has reports whether the key is present and unexpired, deleting it when the
// expiry has passed.
func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

// Set records the key until now + ttl; ttl <= 0 applies the store default.
func (s *MemoryStore) Set(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	s.entries[key] = time.Now().Add(ttl)
	s.mu.Unlock()
	return nil
}

// Close stops the sweep goroutine and drops all entries. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.mu.Lock()
		s.entries = make(map[string]time.Time)
		s.mu.Unlock()
	})
	return nil
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, expiry := range s.entries {
				if now.After(expiry) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
