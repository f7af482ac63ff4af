package main

import (
	"context"
	"time"

	accounthandler "milovat/internal/accounts/handler"
	accountservice "milovat/internal/accounts/service"
	"milovat/internal/bookings/events"
	"milovat/internal/bookings/handler"
	"milovat/internal/bookings/locker"
	"milovat/internal/bookings/repository"
	"milovat/internal/bookings/service"
	"milovat/internal/bookings/validator"
	"milovat/internal/health"
	"milovat/internal/residential"
	"milovat/internal/visits"
	"milovat/pkg/app"
	"milovat/pkg/auth"
	"milovat/pkg/config"
	"milovat/pkg/contracts"
	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/kafka"
	kafka_config "milovat/pkg/kafka/config"
	kafka_middleware "milovat/pkg/kafka/middleware"
	"milovat/pkg/sealer"
	"milovat/pkg/validation"
)

const ServiceName = "milovat-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Milovat API")

	serverApp := app.NewApplication()
	publisher := initPublisher(cfg, serverApp)

	handlers := initHandlers(cfg, publisher)
	serverApp.SetApp(cfg, health.NewHandler(cfg.Client.Mongo, cfg.Log), handlers...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	db := cfg.Client.Database(cfg.MongoDatabaseName)
	timeouts := mongodb.Timeouts{Read: cfg.MongoReadTimeout, Write: cfg.MongoWriteTimeout}
	v := validation.New()
	gate := auth.NewService(cfg.JWTSecret, cfg.JWTExpires)

	accounts := accountservice.NewAccountService(accountservice.NewMongoUserRepository(db, timeouts), gate, v, cfg.Log)
	seedAdmin(cfg, accounts)

	bookings := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		initLocker(cfg),
		validator.NewBookingValidator(cfg.Log, cfg.BookingLocation),
		publisher,
		cfg,
	)

	passSealer, err := sealer.New(cfg.PassSealingKey)
	if err != nil {
		cfg.Log.Fatal("Invalid visit pass sealing key", "error", err)
	}
	passes := visits.NewPassService(residential.NewStore(db, residential.Visits, timeouts), passSealer, cfg.PassTTL, cfg.Log)

	handlers := []contracts.Handler{
		accounthandler.NewAccountHandler(accounts, gate, cfg.Log),
		handler.NewBookingHandler(bookings, gate, cfg.Log),
		visits.NewPassHandler(passes, gate, cfg.Log),
	}
	handlers = append(handlers, residential.Handlers(residential.Deps{
		DB:        db,
		Timeouts:  timeouts,
		Validator: v,
		Gate:      gate,
		Log:       cfg.Log,
	})...)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "lock_mode", cfg.BookingLockMode)
	return handlers
}

func initLocker(cfg *config.Config) locker.Locker {
	if cfg.BookingLockMode == config.LockModeMemory {
		return locker.NewMemoryLocker()
	}
	return locker.NewStoreLocker(repository.NewMongoBookingLockRepository(cfg), cfg.BookingLockTTL, cfg.BookingLockWait, cfg.Log)
}

// initPublisher returns a Kafka backed publisher when Kafka is enabled; booking writes never
// depend on it being reachable.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log)
	if !kafkaCfg.Enabled {
		return events.NoopPublisher{}
	}
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingTopic, kafkaCfg.BookingDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	publisher := events.NewKafkaPublisher(producer)
	serverApp.OnShutdown(func(context.Context) {
		metrics.Log(cfg.Log)
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close booking event publisher", "error", err)
		}
	})
	return publisher
}

func seedAdmin(cfg *config.Config, accounts accountservice.AccountService) {
	if cfg.AdminUsername == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		cfg.Log.Error("Failed to seed bootstrap administrator", "error", err)
		return
	}
	if created {
		cfg.Log.Info("Bootstrap administrator created", "username", cfg.AdminUsername)
	}
}
