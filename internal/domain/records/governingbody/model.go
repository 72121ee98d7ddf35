// Package governingbody keeps the members of each entity's governing body
// (board, technical committee and so on).
package governingbody

import (
	"context"
	"time"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

// Status of a membership.
type Status string

const (
	StatusActive    Status = "Activo"
	StatusConcluded Status = "Concluido"
)

// ParseStatus accepts Activo and Concluido; empty means Activo.
func ParseStatus(raw string) (Status, error) {
	return records.ParseStatus(raw, StatusActive, StatusConcluded)
}

// Member is one seat on a governing body.
type Member struct {
	entity.Base

	EntityID              id.ID      `db:"entity_id" json:"entityId"`
	BodyType              string     `db:"body_type" json:"bodyType"`
	MemberName            string     `db:"member_name" json:"memberName"`
	Position              string     `db:"position" json:"position"`
	AppointmentDate       *time.Time `db:"appointment_date" json:"appointmentDate,omitempty"`
	DesignationInstrument string     `db:"designation_instrument" json:"designationInstrument"`
	Status                Status     `db:"status" json:"status"`
	Observations          string     `db:"observations" json:"observations"`
}

// NewMember creates an active member of entityID.
func NewMember(entityID id.ID) *Member {
	return &Member{Base: entity.NewBase(), EntityID: entityID, Status: StatusActive}
}

// GetEntityID implements records.Attached.
func (m *Member) GetEntityID() id.ID { return m.EntityID }

var _ records.Attached = (*Member)(nil)

// Validate implements entity.Validatable.
func (m *Member) Validate(_ context.Context) error {
	if err := records.RequireEntity(m.EntityID); err != nil {
		return err
	}
	if err := records.RequireText("memberName", m.MemberName); err != nil {
		return err
	}
	if err := records.RequireText("position", m.Position); err != nil {
		return err
	}
	_, err := ParseStatus(string(m.Status))
	return err
}
