package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexlane/courier/idempotency"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreSetThenHas(t *testing.T) {
	_, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "msg-1", time.Minute))

	ok, err := store.Has(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has(ctx, "msg-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	mr, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client)

	require.NoError(t, store.Set(context.Background(), "msg-1", time.Minute))
	assert.True(t, mr.Exists(idempotency.DefaultKeyPrefix+"msg-1"))
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	mr, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client, idempotency.WithKeyPrefix("orders:"))

	require.NoError(t, store.Set(context.Background(), "msg-1", time.Minute))
	assert.True(t, mr.Exists("orders:msg-1"))
	assert.False(t, mr.Exists(idempotency.DefaultKeyPrefix+"msg-1"))
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "msg-1", time.Second))

	mr.FastForward(2 * time.Second)

	ok, err := store.Has(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreDefaultTTLApplied(t *testing.T) {
	mr, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client, idempotency.WithRedisTTL(time.Second))

	ctx := context.Background()
	// ttl <= 0 applies the store default
	require.NoError(t, store.Set(ctx, "msg-1", 0))

	ttl := mr.TTL(idempotency.DefaultKeyPrefix + "msg-1")
	assert.Equal(t, time.Second, ttl)
}

func TestRedisStoreDoesNotCloseInjectedClient(t *testing.T) {
	_, client := newTestRedis(t)
	store := idempotency.NewRedisStore(client)

	require.NoError(t, store.Close())

	// the injected client must remain usable after the store closes
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestDialRedisStoreOwnsClient(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx := context.Background()
	store, err := idempotency.DialRedisStore(ctx, &redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "msg-1", time.Minute))
	ok, err := store.Has(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Close())

	// the dialed client is owned and closed with the store
	assert.Error(t, store.Set(ctx, "msg-2", time.Minute))
}

func TestDialRedisStoreUnreachable(t *testing.T) {
	_, err := idempotency.DialRedisStore(
		context.Background(),
		&redis.Options{Addr: "127.0.0.1:1"},
	)
	assert.Error(t, err)
}
