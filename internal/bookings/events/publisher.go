package events

import (
	"context"
	"fmt"

	"milovat/pkg/kafka"
	"milovat/pkg/logger"
	"milovat/pkg/model"
)

const (
	Source        = "milovat-api"
	SchemaVersion = "1"
)

// Publisher emits booking lifecycle events after the write has been stored.
type Publisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish keys the message by facility so every event for one facility lands on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Facility).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(string(event.Type)).
		WithCorrelationID(logger.RequestID(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build booking event: %w", err)
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *model.BookingEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }
