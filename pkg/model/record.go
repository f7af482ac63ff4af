package model

import "time"

// Meta is embedded by every stored document. The id is the hex form of the store's ObjectID.
type Meta struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

func (m *Meta) GetID() string   { return m.ID }
func (m *Meta) SetID(id string) { m.ID = id }

// Touch stamps the modification time and, for new documents, the creation time.
func (m *Meta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Record is implemented by pointers to every stored document type.
type Record interface {
	GetID() string
	SetID(id string)
	Touch(now time.Time)
}

// Now returns the current UTC time truncated to the store's millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
