package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCacheInterface は空席数キャッシュのインターフェース
type AvailabilityCacheInterface interface {
	GetAvailableCount(ctx context.Context, scheduleID string) (int, error)
	SetAvailableCount(ctx context.Context, scheduleID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, scheduleID string) error
}

// AvailabilityCache は運行便ごとの空席数キャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableCount は運行便の空席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableCount(ctx context.Context, scheduleID string) (int, error) {
	key := c.availableCountKey(scheduleID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount は運行便の空席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableCount(ctx context.Context, scheduleID string, count int, ttl time.Duration) error {
	key := c.availableCountKey(scheduleID)
	err := c.client.Set(ctx, key, count, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は運行便のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, scheduleID string) error {
	key := c.availableCountKey(scheduleID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) availableCountKey(scheduleID string) string {
	return fmt.Sprintf("seats:available:%s", scheduleID)
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)
