package model

import (
	"time"
)

type (
	// A Model defines an object that can be stored in database.
	Model interface {
		// GetID returns the model's ID.
		GetID() int64
		// SetID defines the model's ID.
		SetID(int64)
		// GetCreatedAt returns the model's creation date.
		GetCreatedAt() *time.Time
		// SetCreatedAt defines the model's creation date.
		SetCreatedAt(time.Time)
	}

	// A Saver persists the given model and commits it immediately.
	// Entity operations that must be persisted receive it explicitly.
	Saver interface {
		Save(m Model) error
	}

	// A Base contains the default model fields.
	Base struct {
		ID        int64      `json:"id"         msgpack:"id"         storm:"id,increment"`
		CreatedAt *time.Time `json:"created_at" msgpack:"created_at" storm:"index"`
	}
)

// GetID returns the model's ID.
func (m *Base) GetID() int64 {
	return m.ID
}

// SetID defines the model's ID.
func (m *Base) SetID(id int64) {
	m.ID = id
}

// GetCreatedAt returns the model's creation date.
func (m *Base) GetCreatedAt() *time.Time {
	return m.CreatedAt
}

// SetCreatedAt defines the model's creation date.
func (m *Base) SetCreatedAt(t time.Time) {
	m.CreatedAt = &t
}

// IsNew returns true when the model has never been persisted.
func (m *Base) IsNew() bool {
	return m.ID == 0
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}

func now() *time.Time {
	t := Now()
	return &t
}
