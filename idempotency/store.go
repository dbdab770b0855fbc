// Package idempotency provides the key-existence-with-TTL stores that back the
// consumer's duplicate-suppression gate. Two variants satisfy the same
// contract: a process-local bounded-lifetime map and a Redis-backed store.
//
// The stores record only that a key was seen, never handler results. Presence
// of a key means a delivery with that key was already handed to a handler, so
// replays can be acknowledged without invoking it again. Callers are expected
// to treat store failures as "not a duplicate" (fail-open), favoring
// availability and at-least-once semantics over strict exactly-once.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL is the record lifetime applied when Set is called with ttl <= 0
// and no store-level default was configured.
const DefaultTTL = 6 * time.Hour

// Store is the key-existence-with-TTL contract shared by both variants.
// Implementations must be safe for concurrent use: one store instance is
// shared by all in-flight message-processing goroutines of a consumer.
type Store interface {
	// Has reports whether the key is present and not expired.
	Has(ctx context.Context, key string) (bool, error)
	// Set records the key for the given lifetime; ttl <= 0 applies the
	// store default.
	Set(ctx context.Context, key string, ttl time.Duration) error
	// Close releases underlying resources (timers, connections). It is
	// idempotent and safe to call multiple times.
	Close() error
}
