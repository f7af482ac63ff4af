package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "milovat/internal/bookings/errors"
	"milovat/pkg/config"
	"milovat/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository provides operations for per-facility advisory locks
type BookingLockRepository interface {
	// Acquire returns ErrLockHeld when another owner holds the facility lock.
	Acquire(ctx context.Context, facility, owner string, ttl time.Duration) error
	// Release deletes the lock only if owner still holds it.
	Release(ctx context.Context, facility, owner string) error
	// Refresh pushes the expiry of a lock owner still holds; false means it was lost.
	Refresh(ctx context.Context, facility, owner string, ttl time.Duration) (bool, error)
	// ReclaimExpired removes the facility lock if its expiry has passed.
	ReclaimExpired(ctx context.Context, facility string, now time.Time) (bool, error)
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Database(cfg.MongoDatabaseName)
	return NewBookingLockRepository(db.Collection(LockCollectionName), cfg.MongoWriteTimeout)
}

func NewBookingLockRepository(coll *mongo.Collection, timeout time.Duration) BookingLockRepository {
	return &mongoBookingLockRepository{
		collection: coll,
		timeout:    timeout,
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, facility, owner string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	now := model.Now()
	lock := &model.BookingLock{
		ID:        model.BookingLockID(facility),
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, facility, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":   model.BookingLockID(facility),
		"owner": owner,
	})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Refresh(ctx context.Context, facility, owner string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": model.BookingLockID(facility), "owner": owner},
		bson.M{"$set": bson.M{"expires_at": model.Now().Add(ttl)}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to refresh booking lock: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoBookingLockRepository) ReclaimExpired(ctx context.Context, facility string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        model.BookingLockID(facility),
		"expires_at": bson.M{"$lt": now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to reclaim booking lock: %w", err)
	}
	return res.DeletedCount > 0, nil
}
