// Package inforequest tracks requests for information about registered
// entities and their answers.
package inforequest

import (
	"context"
	"time"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

// Status of a request.
type Status string

const (
	StatusPending    Status = "Pendiente"
	StatusInProgress Status = "En Proceso"
	StatusCompleted  Status = "Completada"
)

// ParseStatus accepts the three statuses; empty means Pendiente.
func ParseStatus(raw string) (Status, error) {
	return records.ParseStatus(raw, StatusPending, StatusInProgress, StatusCompleted)
}

// Request is an information request about an entity.
type Request struct {
	entity.Base

	EntityID     id.ID      `db:"entity_id" json:"entityId"`
	RequestDate  *time.Time `db:"request_date" json:"requestDate,omitempty"`
	Requester    string     `db:"requester" json:"requester"`
	Description  string     `db:"description" json:"description"`
	Status       Status     `db:"status" json:"status"`
	ResponseDate *time.Time `db:"response_date" json:"responseDate,omitempty"`
}

// NewRequest creates a pending request for entityID.
func NewRequest(entityID id.ID) *Request {
	return &Request{Base: entity.NewBase(), EntityID: entityID, Status: StatusPending}
}

// GetEntityID implements records.Attached.
func (r *Request) GetEntityID() id.ID { return r.EntityID }

var _ records.Attached = (*Request)(nil)

// Validate implements entity.Validatable.
func (r *Request) Validate(_ context.Context) error {
	if err := records.RequireEntity(r.EntityID); err != nil {
		return err
	}
	if err := records.RequireText("requester", r.Requester); err != nil {
		return err
	}
	if err := records.RequireText("description", r.Description); err != nil {
		return err
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return err
	}
	return records.CheckOrder("requestDate", r.RequestDate, "responseDate", r.ResponseDate)
}

// applyStatus normalizes the status and keeps the response date in line
// with it: Completada gets one if missing, Pendiente has none.
func (r *Request) applyStatus(today time.Time) error {
	status, err := ParseStatus(string(r.Status))
	if err != nil {
		return err
	}
	r.Status = status

	switch status {
	case StatusCompleted:
		if r.ResponseDate == nil {
			d := today
			r.ResponseDate = &d
		}
	case StatusPending:
		r.ResponseDate = nil
	}
	return nil
}
