package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"staybook/internal/domain"
)

// RoomCache keeps catalog listings in Redis. A nil client turns every method
// into a no-op, and Redis errors are logged and treated as cache misses.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewRoomCache(client *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *RoomCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "staybook"
	}
	return &RoomCache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *RoomCache) key(onlyAvailable bool) string {
	if onlyAvailable {
		return c.prefix + ":rooms:available"
	}
	return c.prefix + ":rooms:all"
}

// Rooms returns the cached listing and whether it was found.
func (c *RoomCache) Rooms(ctx context.Context, onlyAvailable bool) ([]domain.Room, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, c.key(onlyAvailable)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("room cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var rooms []domain.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		c.logger.Warn("room cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return rooms, true
}

func (c *RoomCache) StoreRooms(ctx context.Context, onlyAvailable bool, rooms []domain.Room) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(rooms)
	if err != nil {
		c.logger.Warn("room cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(onlyAvailable), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("room cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached listing.
func (c *RoomCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(true), c.key(false)).Err(); err != nil {
		c.logger.Warn("room cache invalidation failed", zap.Error(err))
	}
}
