package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"milovat/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

type FindOptions struct {
	Sort   bson.D
	Limit  int
	Offset int64
}

// Store is the generic document store shared by every resource. Ids are ObjectIDs in the
// collection and hex strings on the Go side.
type Store[T model.Record] struct {
	coll     *mongo.Collection
	newRec   func() T
	timeouts Timeouts
}

func NewStore[T model.Record](coll *mongo.Collection, newRec func() T, timeouts Timeouts) *Store[T] {
	return &Store[T]{
		coll:     coll,
		newRec:   newRec,
		timeouts: timeouts,
	}
}

func (s *Store[T]) Collection() *mongo.Collection {
	return s.coll
}

func (s *Store[T]) ReadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.timeouts.Read)
}

func (s *Store[T]) WriteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.timeouts.Write)
}

func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	ctx, cancel := s.WriteContext(ctx)
	defer cancel()

	rec.SetID("")
	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to insert into %s: %w", s.coll.Name(), err)
	}

	rec.SetID(InsertedHex(res))
	return nil
}

func (s *Store[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	oid, err := ObjectID(id)
	if err != nil {
		return zero, err
	}

	ctx, cancel := s.ReadContext(ctx)
	defer cancel()

	rec := s.newRec()
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to find %s by id: %w", s.coll.Name(), err)
	}
	return rec, nil
}

func (s *Store[T]) FindOne(ctx context.Context, filter bson.M) (T, error) {
	var zero T
	ctx, cancel := s.ReadContext(ctx)
	defer cancel()

	rec := s.newRec()
	if err := s.coll.FindOne(ctx, filter).Decode(rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to find %s: %w", s.coll.Name(), err)
	}
	return rec, nil
}

func (s *Store[T]) Find(ctx context.Context, filter bson.M, fo FindOptions) ([]T, error) {
	ctx, cancel := s.ReadContext(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find()
	if len(fo.Sort) > 0 {
		opts.SetSort(fo.Sort)
	}
	if fo.Limit > 0 {
		opts.SetLimit(int64(fo.Limit))
	}
	if fo.Offset > 0 {
		opts.SetSkip(fo.Offset)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", s.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	for cursor.Next(ctx) {
		rec := s.newRec()
		if err := cursor.Decode(rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", s.coll.Name(), err)
		}
		out = append(out, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", s.coll.Name(), err)
	}
	return out, nil
}

func (s *Store[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := s.ReadContext(ctx)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.coll.Name(), err)
	}
	return n, nil
}

// Replace overwrites the stored document, keeping its id. Fields left empty with omitempty
// are removed from the stored document.
func (s *Store[T]) Replace(ctx context.Context, rec T) error {
	oid, err := ObjectID(rec.GetID())
	if err != nil {
		return err
	}

	fields, err := toReplacement(rec)
	if err != nil {
		return err
	}

	ctx, cancel := s.WriteContext(ctx)
	defer cancel()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, fields)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to update %s: %w", s.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	oid, err := ObjectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.WriteContext(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func toReplacement(rec any) (bson.M, error) {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	delete(fields, "_id")
	return fields, nil
}

// withTimeout bounds ctx by d. A SessionContext is returned unchanged so the operation
// stays inside its transaction.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
