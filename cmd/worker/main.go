// Command worker consumes domain events and projects order status into Redis.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"supplychain-backend/internal/cache"
	"supplychain-backend/internal/config"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/logger"
	"supplychain-backend/internal/projection"
)

func main() {
	cfg := config.Load()
	service := cfg.ServiceName + "-worker"
	log := logger.New(service, cfg.LogLevel, os.Stdout)

	if len(cfg.KafkaBrokers) == 0 || cfg.RedisAddr == "" {
		log.Error("worker needs KAFKA_BROKERS and REDIS_ADDR")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := cache.NewRedis(rdb)
	proj := projection.New(service, store, store, log)
	cons := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaTopic, cfg.WorkerConcurrency, log)

	log.Info("worker started", "group", cfg.KafkaGroup, "topic", cfg.KafkaTopic, "workers", cfg.WorkerConcurrency)
	if err := cons.Run(ctx, proj.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
