package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"milovat/internal/audit"
	"milovat/pkg/config"
	"milovat/pkg/kafka"
	kafka_config "milovat/pkg/kafka/config"
	kafka_middleware "milovat/pkg/kafka/middleware"
)

const ServiceName = "booking-audit"

func main() {
	cfg := config.LoadJob(ServiceName)

	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled {
		cfg.Log.Fatal("Booking audit consumer requires KAFKA_ENABLED=true")
	}
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	repo := audit.NewMongoRepository(cfg.Client.Database(cfg.MongoDatabaseName), cfg.MongoWriteTimeout)
	handler := audit.NewHandler(repo, cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.BookingTopic, kafkaCfg.AuditGroup, kafkaCfg.BookingDLQTopic, handler.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting booking audit consumer", "topic", kafkaCfg.BookingTopic, "group", kafkaCfg.AuditGroup)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Booking audit consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Booking audit consumer stopped")
}
