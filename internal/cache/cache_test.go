package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewFromClient(rdb), mr
}

func TestNewRedisCache_OK(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping(context.Background()))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache(context.Background(), "://nope")
	require.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), "redis://"+addr)
	require.Error(t, err)
}

func TestSetIfAbsent_WritesOnce(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetIfAbsent(ctx, "k", "v1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.SetIfAbsent(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	v, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", v)

	require.Equal(t, time.Minute, mr.TTL("k"))
}

func TestGet_Absent(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)

	v, found, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, v)
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.SetIfAbsent(ctx, "k", "v", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDelete_Idempotent(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestErrors_WhenRedisDown(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	mr.Close()
	ctx := context.Background()

	_, err := c.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.Error(t, err)

	_, _, err = c.Get(ctx, "k")
	require.Error(t, err)

	require.Error(t, c.Delete(ctx, "k"))
}
