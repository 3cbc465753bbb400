package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"staybook/internal/booking"
	"staybook/internal/clock"
	"staybook/internal/commons"
	"staybook/internal/config"
	"staybook/internal/feedback"
	"staybook/internal/infrastructure/logger"
	"staybook/internal/infrastructure/mysql"
	"staybook/internal/infrastructure/redis"
	"staybook/internal/middleware"
	"staybook/internal/notify"
	"staybook/internal/payment"
	"staybook/internal/room"
	"staybook/internal/server"
	"staybook/internal/storage"
	"staybook/internal/storage/memory"
	mysqlstore "staybook/internal/storage/mysql"
)

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

	if cfg.Auth.JWTSecret == "" {
		zapLogger.Fatal("auth.jwt_secret must be set")
	}

	store, closeStore := openStore(cfg, zapLogger)
	defer closeStore()

	notifier, closeNotifier := openNotifier(cfg.Notifier, zapLogger)
	defer closeNotifier()
	dispatcher := notify.NewDispatcher(notifier, zapLogger.Named("notify"), cfg.Notifier.Timeout)

	redisClient := redis.NewClient(cfg.Cache, zapLogger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	loc, _ := cfg.Booking.Location()
	clk := clock.New(loc)

	router := server.NewRouter(server.Controllers{
		Rooms:     room.NewModule(store, cfg, redisClient, clk, zapLogger),
		Bookings:  booking.NewModule(store, cfg, dispatcher, clk, zapLogger),
		Payments:  payment.NewModule(store, cfg, dispatcher, clk, zapLogger),
		Feedbacks: feedback.NewModule(store, clk, zapLogger),
	}, middleware.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()

	zapLogger.Info("server stopped gracefully")
}

func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, func()) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	if err := mysqlstore.Migrate(context.Background(), db); err != nil {
		db.Close()
		logger.Fatal("migrating database", zap.Error(err))
	}
	logger.Info("database connected")

	store := mysqlstore.NewStore(db, mysqlstore.Options{
		TxTimeout:        cfg.Database.TxTimeout,
		MaxRetryAttempts: cfg.Database.MaxRetryAttempts,
	}, logger.Named("mysql"))
	return store, func() { db.Close() }
}

func openNotifier(cfg config.NotifierConfig, logger *zap.Logger) (notify.Notifier, func()) {
	if cfg.Driver == "rabbitmq" {
		n := notify.NewRabbitMQNotifier(cfg.URL, cfg.Queue, logger.Named("rabbitmq"))
		return n, func() {
			if err := n.Close(); err != nil {
				logger.Warn("closing rabbitmq notifier", zap.Error(err))
			}
		}
	}
	return notify.NewLogNotifier(logger.Named("notifications")), func() {}
}
