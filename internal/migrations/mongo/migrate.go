package mongo

import (
	"context"
	"fmt"

	"milovat/internal/accounts/service"
	"milovat/internal/audit"
	"milovat/internal/bookings/repository"
	"milovat/internal/migrations/mongo/validators"
	"milovat/internal/residential"
	"milovat/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "facility", Value: 1},
			{Key: "start", Value: 1},
			{Key: "end", Value: 1},
		}},
		{Keys: bson.D{{Key: "start", Value: -1}}},
	}

	// Abandoned locks are reaped by the server once expires_at passes.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	BookingAuditIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		{Keys: bson.D{{Key: "facility", Value: 1}, {Key: "start", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
)

func byField(fields ...string) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	return models
}

// Collections lists every collection the services use, in the order they are migrated.
func Collections() []Collection {
	return []Collection{
		{Name: repository.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: repository.LockCollectionName, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		{Name: audit.CollectionName, Indexes: BookingAuditIndexes, Validator: validators.BookingAuditValidator},
		{Name: service.CollectionName, Indexes: UsersIndexes, Validator: validators.UserValidator},
		{
			Name:      residential.Apartments.Collection,
			Indexes:   byField("number"),
			Validator: validators.RecordValidator("number"),
		},
		{
			Name:      residential.Deliveries.Collection,
			Indexes:   byField("apartment_id", "status"),
			Validator: validators.RecordValidator("apartment_id", "received_date", "status"),
		},
		{
			Name:      residential.Documents.Collection,
			Indexes:   byField("user_id", "type"),
			Validator: validators.RecordValidator("user_id", "name", "type", "url", "date"),
		},
		{
			Name:      residential.Incidents.Collection,
			Indexes:   byField("user_id", "status"),
			Validator: validators.RecordValidator("user_id", "title", "status", "priority", "category"),
		},
		{
			Name:      residential.Payments.Collection,
			Indexes:   byField("apartment_id", "status", "due_date"),
			Validator: validators.RecordValidator("concept", "due_date", "status"),
		},
		{
			Name:      residential.Providers.Collection,
			Indexes:   byField("service"),
			Validator: validators.RecordValidator("company", "service"),
		},
		{
			Name: residential.Reserves.Collection,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "facility", Value: 1}, {Key: "date", Value: 1}}},
				{Keys: bson.D{{Key: "apartment_id", Value: 1}}},
			},
			Validator: validators.RecordValidator("apartment_id", "facility", "date", "start_time", "end_time", "status"),
		},
		{
			Name:      residential.Announcements.Collection,
			Indexes:   []mongo.IndexModel{{Keys: bson.D{{Key: "date", Value: -1}}}},
			Validator: validators.RecordValidator("title", "date"),
		},
		{
			Name:      residential.Fines.Collection,
			Indexes:   byField("apartment", "status"),
			Validator: validators.RecordValidator("apartment", "owner", "date", "status"),
		},
		{
			Name:      residential.Visits.Collection,
			Indexes:   byField("apartment_id", "entry_time"),
			Validator: validators.RecordValidator("apartment_id", "visitor_name", "entry_time"),
		},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())
	if err := Apply(ctx, db, Collections(), log); err != nil {
		return err
	}
	log.Info("All migrations applied successfully")
	return nil
}

// Apply creates missing collections, refreshes validators on existing ones and ensures
// indexes. It is safe to run repeatedly.
func Apply(ctx context.Context, db *mongo.Database, collections []Collection, log *logger.Logger) error {
	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Debug("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Debug("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
