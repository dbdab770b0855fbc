package idempotency

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces idempotency records so they cannot collide with
// unrelated data in a shared Redis instance.
const DefaultKeyPrefix = "courier:idempotency:"

// redisMarker is the value stored under each key; only key existence matters.
const redisMarker = "1"

// RedisStore is the remote Store variant, backed by the Redis EXISTS/SET PX
// commands. Atomicity under concurrent Has/Set is Redis's own. The store
// tracks whether it owns the client: an externally supplied client is never
// closed by Close, so the store integrates safely into hosts managing their
// own connection pool.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	ownsClient bool
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the namespace prefix prepended to every key
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisTTL sets the record lifetime applied when Set receives ttl <= 0
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// NewRedisStore wraps an externally-owned client. Close will NOT close the
// client; the caller keeps connection lifecycle responsibility.
func NewRedisStore(client redis.UniversalClient, options ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		prefix:     DefaultKeyPrefix,
		defaultTTL: DefaultTTL,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// DialRedisStore establishes its own connection from the given options and
// verifies it with a ping. The resulting store owns the client and closes it
// on Close.
func DialRedisStore(ctx context.Context, opt *redis.Options, options ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "idempotency: cannot reach redis")
	}
	s := NewRedisStore(client, options...)
	s.ownsClient = true
	return s, nil
}

// Has reports whether the namespaced key exists.
func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, errors.Wrap(err, "idempotency: EXISTS failed")
	}
	return n > 0, nil
}

// Set records the namespaced key with a millisecond-granularity TTL
// (go-redis issues SET PX for sub-second-capable durations).
func (s *RedisStore) Set(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, s.prefix+key, redisMarker, ttl).Err(); err != nil {
		return errors.Wrap(err, "idempotency: SET failed")
	}
	return nil
}

// Close releases the client only when the store dialed it itself. Safe to
// call multiple times: go-redis tolerates closing a closed client.
func (s *RedisStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
