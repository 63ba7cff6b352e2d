package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, CacheOptions{OpTimeout: time.Second, ScanBatchSize: 2}), mr
}

func TestCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, err := c.Get(ctx, "liq:btcusdt:60000:1:2")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Set(ctx, "liq:btcusdt:60000:1:2", []byte(`[1]`), 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("liq:btcusdt:60000:1:2"))

	got, err := c.Get(ctx, "liq:btcusdt:60000:1:2")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, c.Delete(ctx, "liq:btcusdt:60000:1:2"))
	assert.False(t, mr.Exists("liq:btcusdt:60000:1:2"))
}

func TestCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "symbols:all", []byte(`[]`), time.Hour))
	mr.FastForward(time.Hour)

	_, err := c.Get(ctx, "symbols:all")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestCacheDeleteMatching(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for _, k := range []string{"liq:btc:1", "liq:btc:2", "liq:btc:h:abc", "liq:eth:1", "orders:btc:latest:5"} {
		require.NoError(t, mr.Set(k, "x"))
	}

	n, err := c.DeleteMatching(ctx, "liq:btc:*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, mr.Exists("liq:eth:1"))
	assert.True(t, mr.Exists("orders:btc:latest:5"))
}

func TestCacheDeleteMatchingRemovesEveryScannedKey(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for i := 0; i < 11; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("liq:btc:%d", i), "x"))
	}
	require.NoError(t, mr.Set("liq:btc/usdt:1", "x"))
	require.NoError(t, mr.Set("symbols:all", "x"))

	n, err := c.DeleteMatching(ctx, "liq:btc:*")
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	n, err = c.DeleteMatching(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, mr.Keys())
}

func TestCacheUnavailableWhenServerDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrUnavailable)

	err = c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.ErrorIs(t, err, cache.ErrUnavailable)

	_, err = c.DeleteMatching(ctx, "*")
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestParseMemoryInfo(t *testing.T) {
	info := parseMemoryInfo("# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_rss:2000\r\n")
	assert.Equal(t, int64(1048576), info.MemoryUsedBytes)
	assert.Equal(t, "1.00M", info.MemoryUsedHuman)
}

func TestBuildOptionsPrefersURL(t *testing.T) {
	opts, err := BuildOptions(config.RedisConfig{
		URL:      "redis://:pw@cache.internal:6380/3",
		Host:     "ignored",
		Port:     1,
		PoolSize: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = BuildOptions(config.RedisConfig{Host: "localhost", Port: 6379, DB: 1})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	_, err = BuildOptions(config.RedisConfig{URL: "http://bad"})
	assert.Error(t, err)
}
