package audit

import (
	"context"
	"fmt"
	"time"

	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Booking_audit"

type Repository interface {
	// Record stores the event once; a replay of a stored event id is not an error.
	Record(ctx context.Context, event *model.BookingEvent) (inserted bool, err error)
}

type mongoRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(coll *mongo.Collection, timeout time.Duration) Repository {
	return &mongoRepository{coll: coll, timeout: timeout}
}

func NewMongoRepository(db *mongo.Database, timeout time.Duration) Repository {
	return NewRepository(db.Collection(CollectionName), timeout)
}

func (r *mongoRepository) Record(ctx context.Context, event *model.BookingEvent) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if mongodb.IsUnavailable(err) {
			return false, fmt.Errorf("audit store unavailable: %w", err)
		}
		return false, fmt.Errorf("failed to record booking event %s: %w", event.EventID, err)
	}
	return true, nil
}
