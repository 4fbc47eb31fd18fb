package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sandcastle/microservices/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	store := NewRedisIdempotencyStore(client, "")

	isNew, err := store.MarkProcessed(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, mr.Exists(DefaultKeyPrefix+"msg-1"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKeyPrefix+"msg-1"))

	isNew, err = store.MarkProcessed(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "msg-1"))
	processed, err = store.IsProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	store := NewRedisIdempotencyStore(client, "test:")

	_, err := store.MarkProcessed(ctx, "msg-2", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	isNew, err := store.MarkProcessed(ctx, "msg-2", time.Second)
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestRedisIdempotencyStore_ConnectionError(t *testing.T) {
	mr, client := newMiniredisClient(t)
	store := NewRedisIdempotencyStore(client, "")
	mr.Close()

	_, err := store.MarkProcessed(context.Background(), "msg-3", time.Minute)
	assert.ErrorContains(t, err, "failed to mark message msg-3")
}

func TestRedisIdempotencyStore_CloseKeepsSharedClient(t *testing.T) {
	_, client := newMiniredisClient(t)
	store := NewRedisIdempotencyStore(client, "")

	require.NoError(t, store.Close())
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := splitAddr(t, mr)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	assert.Error(t, err)
}

func TestNewIdempotencyStore(t *testing.T) {
	_, client := newMiniredisClient(t)

	store := NewIdempotencyStore(config.IdempotencyConfig{UseRedis: true}, client, zap.NewNop())
	assert.IsType(t, &RedisIdempotencyStore{}, store)

	store = NewIdempotencyStore(config.IdempotencyConfig{UseRedis: true}, nil, zap.NewNop())
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	_ = store.Close()

	store = NewIdempotencyStore(config.IdempotencyConfig{}, client, zap.NewNop())
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	_ = store.Close()
}

func splitAddr(t *testing.T, mr *miniredis.Miniredis) (string, int) {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return mr.Host(), port
}
