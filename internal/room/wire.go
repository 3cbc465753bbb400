package room

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/cache"
	"staybook/internal/clock"
	"staybook/internal/config"
	"staybook/internal/storage"
)

// NewModule builds the catalog. redisClient may be nil.
func NewModule(store storage.Store, cfg *config.Config, redisClient *redis.Client, clk clock.Clock, logger *zap.Logger) *Controller {
	roomCache := cache.NewRoomCache(redisClient, cfg.Cache.TTL, cfg.Cache.Prefix, logger.Named("cache"))
	svc := NewService(
		store,
		availability.NewIndex(),
		roomCache,
		clk,
		cfg.Booking.Policy(),
		logger.Named("room"),
	)
	return NewController(svc, logger)
}
