package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/vibe-storefront/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisBlacklist(t *testing.T) {
	mr, c := setupTestRedis(t)
	blacklist := NewRedisBlacklist(c)
	ctx := context.Background()

	revoked, err := blacklist.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.Revoke(ctx, "token-1", time.Minute))
	revoked, err = blacklist.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("blacklist:token-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = blacklist.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisBlacklist_ConnectionFailure(t *testing.T) {
	mr, c := setupTestRedis(t)
	blacklist := NewRedisBlacklist(c)
	mr.Close()

	_, err := blacklist.IsRevoked(context.Background(), "token-1")
	assert.Error(t, err)
}

func TestMemoryBlacklist(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	blacklist := NewMemoryBlacklist()
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "token-1", time.Minute))
	require.NoError(t, blacklist.Revoke(ctx, "token-2", 0))

	revoked, _ := blacklist.IsRevoked(ctx, "token-1")
	assert.True(t, revoked)
	revoked, _ = blacklist.IsRevoked(ctx, "token-2")
	assert.False(t, revoked)

	now = now.Add(time.Minute)
	revoked, _ = blacklist.IsRevoked(ctx, "token-1")
	assert.False(t, revoked)
}

func TestNewTokenBlacklist(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		blacklist := NewTokenBlacklist(&config.RedisConfig{})
		assert.IsType(t, &MemoryBlacklist{}, blacklist)
	})

	t.Run("Configured", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Cleanup(func() { _ = Close() })

		blacklist := NewTokenBlacklist(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()})
		assert.IsType(t, &RedisBlacklist{}, blacklist)
		assert.NotNil(t, GetClient())
	})
}
