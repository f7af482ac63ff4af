package model

import "time"

type BookingEventType string

const (
	BookingCreated BookingEventType = "booking.created"
	BookingUpdated BookingEventType = "booking.updated"
	BookingDeleted BookingEventType = "booking.deleted"
)

// BookingEvent is published on every successful booking write and stored by the audit consumer.
type BookingEvent struct {
	EventID     string           `json:"eventId" bson:"_id"`
	Type        BookingEventType `json:"type" bson:"type"`
	BookingID   string           `json:"bookingId" bson:"booking_id"`
	Facility    string           `json:"facility" bson:"facility"`
	Start       time.Time        `json:"start" bson:"start"`
	End         time.Time        `json:"end" bson:"end"`
	RequesterID string           `json:"requesterId,omitempty" bson:"requester_id,omitempty"`
	ActorID     string           `json:"actorId,omitempty" bson:"actor_id,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt" bson:"occurred_at"`
	ReceivedAt  time.Time        `json:"receivedAt,omitempty" bson:"received_at,omitempty"`
}
