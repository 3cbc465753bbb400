package booking

import (
	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/config"
	"staybook/internal/pricing"
	"staybook/internal/storage"
)

func NewModule(store storage.Store, cfg *config.Config, notifier Notifier, clk clock.Clock, logger *zap.Logger) *Controller {
	rate, err := cfg.Booking.ChildRateDecimal()
	if err != nil {
		rate = pricing.DefaultChildRate
	}
	svc := NewService(
		store,
		availability.NewIndex(),
		pricing.NewCalculator(rate),
		notifier,
		clk,
		cfg.Booking.Policy(),
		logger.Named("booking"),
	)
	return NewController(svc, logger)
}
