package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "milovat/internal/bookings/errors"
	"milovat/pkg/config"
	mongodb "milovat/pkg/db/mongo"
	"milovat/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"

	isoPrefixLayout = "2006-01-02T15:04:05"
)

// Interval is the raw start/end pair of a stored booking, read tolerantly.
type Interval struct {
	Start time.Time
	End   time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id string) error
	// FindOverlapping returns bookings on facility with start < end and end > start,
	// ignoring excludeID when it is set.
	FindOverlapping(ctx context.Context, facility string, start, end time.Time, excludeID string) ([]*model.Booking, error)
	// FindStartingWithin returns the intervals of bookings on facility whose start lies in
	// [from, to]. Documents whose start or end cannot be read are skipped.
	FindStartingWithin(ctx context.Context, facility string, from, to time.Time) ([]Interval, int, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoBookingRepository struct {
	store     *mongodb.Store[*model.Booking]
	txManager mongodb.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Database(cfg.MongoDatabaseName)
	txManager := mongodb.NewPassthroughManager()
	if cfg.MongoTransactions {
		txManager = mongodb.NewTransactionManager(cfg.Client.Mongo)
	}
	return NewBookingRepository(db.Collection(CollectionName), txManager, mongodb.Timeouts{
		Read:  cfg.MongoReadTimeout,
		Write: cfg.MongoWriteTimeout,
	})
}

func NewBookingRepository(coll *mongo.Collection, txManager mongodb.TransactionManager, timeouts mongodb.Timeouts) BookingRepository {
	return &mongoBookingRepository{
		store:     mongodb.NewStore(coll, func() *model.Booking { return &model.Booking{} }, timeouts),
		txManager: txManager,
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return translate(r.store.Insert(ctx, booking))
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.store.Find(ctx, nil, mongodb.FindOptions{
		Sort:   bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}},
		Limit:  limit,
		Offset: offset,
	})
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, nil)
}

func (r *mongoBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return translate(r.store.Replace(ctx, booking))
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	return translate(r.store.Delete(ctx, id))
}

func (r *mongoBookingRepository) FindOverlapping(ctx context.Context, facility string, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	filter := bson.M{
		"facility": facility,
		"start":    bson.M{"$lt": end},
		"end":      bson.M{"$gt": start},
	}
	if excludeID != "" {
		oid, err := mongodb.ObjectID(excludeID)
		if err != nil {
			return nil, bookingserrors.ErrInvalidID
		}
		filter["_id"] = bson.M{"$ne": oid}
	}

	return r.store.Find(ctx, filter, mongodb.FindOptions{Limit: 1})
}

func (r *mongoBookingRepository) FindStartingWithin(ctx context.Context, facility string, from, to time.Time) ([]Interval, int, error) {
	ctx, cancel := r.store.ReadContext(ctx)
	defer cancel()

	// legacy documents carry ISO strings instead of dates; those sort lexically
	filter := bson.M{
		"facility": facility,
		"$or": bson.A{
			bson.M{"start": bson.M{"$gte": from, "$lte": to}},
			bson.M{"start": bson.M{
				"$gte": from.Format(isoPrefixLayout),
				"$lte": to.Format(isoPrefixLayout) + "\uffff",
			}},
		},
	}
	opts := options.Find().SetProjection(bson.M{"start": 1, "end": 1})

	cursor, err := r.store.Collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query occupied hours: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Interval
	skipped := 0
	for cursor.Next(ctx) {
		start, okStart := readInstant(cursor.Current.Lookup("start"), from.Location())
		end, okEnd := readInstant(cursor.Current.Lookup("end"), from.Location())
		if !okStart || !okEnd {
			skipped++
			continue
		}
		out = append(out, Interval{Start: start, End: end})
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error on occupied hours: %w", err)
	}
	return out, skipped, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// readInstant accepts BSON dates and ISO-8601 strings; naive strings are read in loc.
func readInstant(v bson.RawValue, loc *time.Location) (time.Time, bool) {
	switch v.Type {
	case bson.TypeDateTime:
		dt, ok := v.DateTimeOK()
		if !ok || dt == 0 {
			return time.Time{}, false
		}
		return primitive.DateTime(dt).Time().UTC(), true
	case bson.TypeString:
		s, ok := v.StringValueOK()
		if !ok || s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
		for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongodb.ErrNotFound):
		return bookingserrors.ErrNotFound
	case errors.Is(err, mongodb.ErrInvalidID):
		return bookingserrors.ErrInvalidID
	default:
		return err
	}
}
