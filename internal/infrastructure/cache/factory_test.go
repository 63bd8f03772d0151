package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachable(context.Context, config.RedisConfig) (*redis.Client, error) {
	return nil, errors.New("connection refused")
}

func TestIdempotencyStoreFactory_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})
		f.dial = func(context.Context, config.RedisConfig) (*redis.Client, error) {
			t.Fatal("dial must not be called when redis is disabled")
			return nil, nil
		}

		store, err := f.Create(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("falls back when unreachable", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true, Host: "localhost", Port: 1})
		f.dial = unreachable

		store, err := f.Create(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("errors when fallback disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true, Host: "localhost", Port: 1},
			WithInMemoryFallback(false))
		f.dial = unreachable

		store, err := f.Create(ctx)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestRedisIdempotencyStore_PropagatesClientErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisIdempotencyStore(client, "", true)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	won, err := store.MarkProcessed(ctx, "k", time.Minute)
	assert.Error(t, err)
	assert.False(t, won)

	processed, err := store.IsProcessed(ctx, "k")
	assert.Error(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_BorrowedClientStaysOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	store := NewRedisIdempotencyStore(client, "custom:", false)
	require.NoError(t, store.Close())
	assert.Equal(t, "custom:", store.prefix)
	assert.NotErrorIs(t, client.Close(), redis.ErrClosed)
}
