package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunResultCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []any{"a.txt"}))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"k"))

	mr.FastForward(2 * time.Second)

	_, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "entry should expire with the TTL")
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithPrefix("custom:"))
	require.NoError(t, cache.Set(context.Background(), "k", "v"))

	assert.True(t, mr.Exists("custom:k"))
	assert.False(t, mr.Exists(redis.DefaultPrefix+"k"))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"bad", "{not json"))

	_, _, err := redis.NewFromClient(client).Get(context.Background(), "bad")
	assert.Error(t, err)
}
