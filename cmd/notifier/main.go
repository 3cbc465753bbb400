package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"staybook/internal/commons"
	"staybook/internal/infrastructure/logger"
	"staybook/internal/notify"
)

// The notifier drains booking events published by the server. Each event is
// logged as the hand-off point to the mail provider.
func main() {
	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(cfg.Notifier.URL, cfg.Notifier.Queue, notify.LogHandler(zapLogger.Named("mail")), zapLogger)
	zapLogger.Info("consuming booking events", zap.String("queue", cfg.Notifier.Queue))
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		zapLogger.Fatal("consumer stopped", zap.Error(err))
	}
	zapLogger.Info("notifier stopped")
}
