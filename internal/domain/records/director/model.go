// Package director keeps the people who head or are responsible for an
// entity over time.
package director

import (
	"context"
	"time"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

// Director is one term at the head of an entity. A term without EndDate
// is current.
type Director struct {
	entity.Base

	EntityID           id.ID      `db:"entity_id" json:"entityId"`
	Name               string     `db:"name" json:"name"`
	Position           string     `db:"position" json:"position"`
	ResponsibilityType string     `db:"responsibility_type" json:"responsibilityType"`
	StartDate          *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate            *time.Time `db:"end_date" json:"endDate,omitempty"`
	SupportDocument    string     `db:"support_document" json:"supportDocument"`
}

// NewDirector creates an empty term for entityID.
func NewDirector(entityID id.ID) *Director {
	return &Director{Base: entity.NewBase(), EntityID: entityID}
}

// Current reports whether the term has not ended.
func (d *Director) Current() bool {
	return d.EndDate == nil
}

// GetEntityID implements records.Attached.
func (d *Director) GetEntityID() id.ID { return d.EntityID }

var _ records.Attached = (*Director)(nil)

// Validate implements entity.Validatable.
func (d *Director) Validate(_ context.Context) error {
	if err := records.RequireEntity(d.EntityID); err != nil {
		return err
	}
	if err := records.RequireText("name", d.Name); err != nil {
		return err
	}
	if err := records.RequireText("position", d.Position); err != nil {
		return err
	}
	return records.CheckOrder("startDate", d.StartDate, "endDate", d.EndDate)
}
