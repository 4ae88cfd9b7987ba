package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// CapacityCache はイベントの残席情報のキャッシュを管理する
// 参照系のcheckCapacity専用であり、予約時の残席判定には使用しない
type CapacityCache struct {
	client *redis.Client
}

// NewCapacityCache は新しいCapacityCacheインスタンスを作成する
func NewCapacityCache(client *redis.Client) *CapacityCache {
	return &CapacityCache{client: client}
}

type capacityEntry struct {
	AvailableSpots int `json:"available_spots"`
	Capacity       int `json:"capacity"`
}

// Get はイベントの残席数と定員をキャッシュから取得する
func (c *CapacityCache) Get(ctx context.Context, eventID string) (availableSpots, capacity int, err error) {
	key := c.capacityKey(eventID)
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, ErrCacheMiss
		}
		return 0, 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var entry capacityEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return 0, 0, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return entry.AvailableSpots, entry.Capacity, nil
}

// Set はイベントの残席数と定員をキャッシュに保存する
func (c *CapacityCache) Set(ctx context.Context, eventID string, availableSpots, capacity int, ttl time.Duration) error {
	val, err := json.Marshal(capacityEntry{AvailableSpots: availableSpots, Capacity: capacity})
	if err != nil {
		return fmt.Errorf("キャッシュの作成に失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.capacityKey(eventID), val, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
func (c *CapacityCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, c.capacityKey(eventID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *CapacityCache) capacityKey(eventID string) string {
	return fmt.Sprintf("events:capacity:%s", eventID)
}
