package main

import (
	"context"
	"time"

	accountservice "milovat/internal/accounts/service"
	mongoMigration "milovat/internal/migrations/mongo"
	"milovat/pkg/auth"
	"milovat/pkg/config"
	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/validation"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.LoadJob(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if cfg.AdminUsername != "" {
		seedAdmin(ctx, cfg)
	}
	cfg.Log.Info("Migration completed successfully")
}

func seedAdmin(ctx context.Context, cfg *config.Config) {
	repo := accountservice.NewMongoUserRepository(cfg.Client.Database(cfg.MongoDatabaseName), mongodb.Timeouts{
		Read:  cfg.MongoReadTimeout,
		Write: cfg.MongoWriteTimeout,
	})
	// EnsureAdmin never issues tokens.
	accounts := accountservice.NewAccountService(repo, auth.NewService(cfg.JWTSecret, time.Minute), validation.New(), cfg.Log)

	created, err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	switch {
	case err != nil:
		cfg.Log.Error("Failed to seed bootstrap administrator", "error", err)
	case created:
		cfg.Log.Info("Bootstrap administrator created", "username", cfg.AdminUsername)
	default:
		cfg.Log.Info("Bootstrap administrator already present", "username", cfg.AdminUsername)
	}
}
