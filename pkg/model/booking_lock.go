package model

import "time"

// BookingLock serializes booking writes for a single facility across processes.
// The id is derived from the facility, so a second insert fails with a duplicate key.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func BookingLockID(facility string) string {
	return "facility:" + facility
}
