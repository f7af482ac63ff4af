package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"milovat/pkg/kafka"
	"milovat/pkg/logger"
	"milovat/pkg/model"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRepository_Record(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	event := &model.BookingEvent{EventID: "evt-1", Type: model.BookingCreated, BookingID: "b1"}

	mt.Run("inserted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewRepository(mt.Coll, time.Second)

		inserted, err := repo.Record(context.Background(), event)
		require.NoError(mt, err)
		assert.True(mt, inserted)

		doc := mt.GetStartedEvent().Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "evt-1", doc.Lookup("_id").StringValue())
		assert.Equal(mt, "booking.created", doc.Lookup("type").StringValue())
	})

	mt.Run("replay is not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		repo := NewRepository(mt.Coll, time.Second)

		inserted, err := repo.Record(context.Background(), event)
		require.NoError(mt, err)
		assert.False(mt, inserted)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 0}, {Key: "code", Value: 121}, {Key: "errmsg", Value: "Document failed validation"}})
		repo := NewRepository(mt.Coll, time.Second)

		_, err := repo.Record(context.Background(), event)
		assert.Error(mt, err)
	})
}

type fakeRepo struct {
	mu     sync.Mutex
	stored map[string]model.BookingEvent
	err    error
}

func (f *fakeRepo) Record(_ context.Context, e *model.BookingEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.stored[e.EventID]; ok {
		return false, nil
	}
	f.stored[e.EventID] = *e
	return true, nil
}

func message(t *testing.T, v any, headers map[string]string) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	if headers == nil {
		headers = map[string]string{}
	}
	return kafka.Message{Value: raw, Headers: headers}
}

func TestHandler_Handle(t *testing.T) {
	received := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	repo := &fakeRepo{stored: map[string]model.BookingEvent{}}
	h := NewHandler(repo, logger.Discard())
	h.now = func() time.Time { return received }
	ctx := context.Background()

	event := model.BookingEvent{EventID: "evt-1", Type: model.BookingCreated, BookingID: "b1", Facility: "Pool"}
	require.NoError(t, h.Handle(ctx, message(t, event, nil)))
	require.NoError(t, h.Handle(ctx, message(t, event, nil)))
	require.Len(t, repo.stored, 1)
	assert.Equal(t, received, repo.stored["evt-1"].ReceivedAt)

	noID := model.BookingEvent{Type: model.BookingDeleted, BookingID: "b2"}
	require.NoError(t, h.Handle(ctx, message(t, noID, map[string]string{kafka.HeaderEventID: "evt-2"})))
	assert.Contains(t, repo.stored, "evt-2")
}

func TestHandler_Classification(t *testing.T) {
	ctx := context.Background()

	permanent := map[string]kafka.Message{
		"garbage":      {Value: []byte("{not json")},
		"unknown type": message(t, model.BookingEvent{EventID: "e", Type: "booking.moved", BookingID: "b"}, nil),
		"no booking":   message(t, model.BookingEvent{EventID: "e", Type: model.BookingCreated}, nil),
		"no event id":  message(t, model.BookingEvent{Type: model.BookingCreated, BookingID: "b"}, nil),
	}
	h := NewHandler(&fakeRepo{stored: map[string]model.BookingEvent{}}, logger.Discard())
	for name, msg := range permanent {
		t.Run(name, func(t *testing.T) {
			err := h.Handle(ctx, msg)
			require.Error(t, err)
			assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
		})
	}

	valid := message(t, model.BookingEvent{EventID: "e", Type: model.BookingCreated, BookingID: "b"}, nil)

	down := NewHandler(&fakeRepo{err: fmt.Errorf("audit store unavailable: %w", mongo.ErrClientDisconnected)}, logger.Discard())
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(down.Handle(ctx, valid)))

	broken := NewHandler(&fakeRepo{err: errors.New("document failed validation")}, logger.Discard())
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(broken.Handle(ctx, valid)))
}

type scriptedReader struct {
	mu        sync.Mutex
	msgs      []segkafka.Message
	committed []int64
	done      chan struct{}
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (segkafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	close(r.done)
	<-ctx.Done()
	return segkafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...segkafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) Close() error { return nil }

type dlqWriter struct {
	mu   sync.Mutex
	msgs []segkafka.Message
}

func (w *dlqWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *dlqWriter) Close() error { return nil }

func TestHandler_WithConsumer(t *testing.T) {
	good, err := json.Marshal(model.BookingEvent{EventID: "evt-1", Type: model.BookingUpdated, BookingID: "b1"})
	require.NoError(t, err)

	reader := &scriptedReader{
		msgs: []segkafka.Message{
			{Offset: 1, Value: good},
			{Offset: 2, Value: []byte("nope")},
			{Offset: 3, Value: good},
		},
		done: make(chan struct{}),
	}
	dlq := &dlqWriter{}
	repo := &fakeRepo{stored: map[string]model.BookingEvent{}}

	consumer, err := kafka.NewConsumerWithReader(reader, dlq, "milovat.bookings", "audit", 3, NewHandler(repo, logger.Discard()).Handle, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Start(ctx) }()

	<-reader.done
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	require.NoError(t, consumer.Close())

	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	assert.Len(t, repo.stored, 1)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, []byte("nope"), dlq.msgs[0].Value)
}
