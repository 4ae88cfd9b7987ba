package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danribes/go-event-booking/internal/config"
)

func setupTestCache(t *testing.T) *CapacityCache {
	t.Helper()
	client := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return NewCapacityCache(client)
}

func TestCapacityCache(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()
	eventID := "test-event-123"

	t.Run("キャッシュミス時はErrCacheMissを返す", func(t *testing.T) {
		_, _, err := cache.Get(ctx, "no-such-event")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("セットした残席数と定員を取得できる", func(t *testing.T) {
		err := cache.Set(ctx, eventID, 42, 100, 30*time.Second)
		require.NoError(t, err)

		available, capacity, err := cache.Get(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 42, available)
		assert.Equal(t, 100, capacity)
	})

	t.Run("キャッシュを無効化できる", func(t *testing.T) {
		err := cache.Set(ctx, eventID, 10, 100, 30*time.Second)
		require.NoError(t, err)

		err = cache.Invalidate(ctx, eventID)
		require.NoError(t, err)

		_, _, err = cache.Get(ctx, eventID)
		assert.ErrorIs(t, err, ErrCacheMiss)
	})
}

func TestCapacityCache_TTL(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()
	eventID := "test-event-ttl"

	err := cache.Set(ctx, eventID, 5, 20, 100*time.Millisecond)
	require.NoError(t, err)

	available, _, err := cache.Get(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 5, available)

	time.Sleep(150 * time.Millisecond)
	_, _, err = cache.Get(ctx, eventID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
