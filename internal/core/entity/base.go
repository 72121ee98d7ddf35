// Package entity provides the base types shared by registry records.
package entity

import (
	"context"
	"time"

	"repopa/internal/core/id"
)

// Validatable is implemented by records that check their own invariants
// (without database access).
type Validatable interface {
	// Validate returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Identifiable exposes the primary key and optimistic-lock version.
type Identifiable interface {
	GetID() id.ID
	GetVersion() int
}

// Base contains the columns every registry table carries.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBase creates a Base with generated ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetID implements Identifiable.
func (b *Base) GetID() id.ID { return b.ID }

// GetVersion implements Identifiable.
func (b *Base) GetVersion() int { return b.Version }

// Touch updates the UpdatedAt timestamp.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// SetCreatedBy records the author of the row.
func (b *Base) SetCreatedBy(userID string) {
	b.CreatedBy = userID
}

// SetUpdatedBy records the last editor of the row.
func (b *Base) SetUpdatedBy(userID string) {
	b.UpdatedBy = userID
}

// BumpVersion mirrors the version increment done by the database on a
// successful optimistic update.
func (b *Base) BumpVersion() {
	b.Version++
}
