package payment

import (
	"go.uber.org/zap"

	"staybook/internal/availability"
	"staybook/internal/clock"
	"staybook/internal/config"
	"staybook/internal/storage"
)

func NewModule(store storage.Store, cfg *config.Config, notifier Notifier, clk clock.Clock, logger *zap.Logger) *Controller {
	svc := NewService(
		store,
		availability.NewIndex(),
		notifier,
		clk,
		cfg.Payment.DefaultCurrency,
		logger.Named("payment"),
	)
	return NewController(svc, logger)
}
