package model

import "time"

type Booking struct {
	Meta        `bson:",inline"`
	Facility    string    `json:"facility" bson:"facility" validate:"required,max=100"`
	Start       time.Time `json:"start" bson:"start" validate:"required"`
	End         time.Time `json:"end" bson:"end" validate:"required,gtfield=Start"`
	RequesterID string    `json:"requesterId,omitempty" bson:"requester_id,omitempty" validate:"omitempty,mongodb"`
}

// Overlaps reports whether the half-open intervals [b.Start, b.End) and [start, end) intersect.
// Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}

// BookingRequest is the body accepted by create and update. Times arrive as strings so that
// both zoned (RFC 3339) and naive ISO-8601 datetimes can be accepted.
type BookingRequest struct {
	Facility    string `json:"facility"`
	Start       string `json:"start"`
	End         string `json:"end"`
	RequesterID string `json:"requesterId,omitempty"`
}

// OccupiedSlot is the hour-of-day pair reported by the occupied-hours query.
type OccupiedSlot struct {
	Start int `json:"start"`
	End   int `json:"end"`
}
