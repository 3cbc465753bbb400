package feedback

import (
	"go.uber.org/zap"

	"staybook/internal/clock"
	"staybook/internal/storage"
)

func NewModule(store storage.Store, clk clock.Clock, logger *zap.Logger) *Controller {
	svc := NewService(store, clk, logger.Named("feedback"))
	return NewController(svc, logger)
}
