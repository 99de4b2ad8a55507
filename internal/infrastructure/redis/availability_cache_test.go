package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityCache_GetAvailableCount(t *testing.T) {
	ctx := context.Background()

	t.Run("キャッシュヒット", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewAvailabilityCache(client)

		mock.ExpectGet("seats:available:schedule-1").SetVal("12")

		count, err := cache.GetAvailableCount(ctx, "schedule-1")

		require.NoError(t, err)
		assert.Equal(t, 12, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("キャッシュミス", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewAvailabilityCache(client)

		mock.ExpectGet("seats:available:schedule-1").RedisNil()

		_, err := cache.GetAvailableCount(ctx, "schedule-1")

		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("Redisエラーはラップして返す", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		cache := NewAvailabilityCache(client)

		mock.ExpectGet("seats:available:schedule-1").SetErr(errors.New("connection reset"))

		_, err := cache.GetAvailableCount(ctx, "schedule-1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})
}

func TestAvailabilityCache_SetAvailableCount(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(client)

	mock.ExpectSet("seats:available:schedule-1", 8, 30*time.Second).SetVal("OK")

	err := cache.SetAvailableCount(ctx, "schedule-1", 8, 30*time.Second)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewAvailabilityCache(client)

	mock.ExpectDel("seats:available:schedule-1").SetVal(1)

	err := cache.Invalidate(ctx, "schedule-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
