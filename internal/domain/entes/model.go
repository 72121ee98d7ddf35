// Package entes implements the registration and maintenance of public
// sector entities and the assignment of their folios.
package entes

import (
	"context"
	"strings"
	"time"

	"repopa/internal/core/apperror"
	"repopa/internal/core/entity"
	"repopa/internal/core/folio"
)

// Status of a registered entity.
type Status string

const (
	StatusActive   Status = "Activo"
	StatusInactive Status = "Inactivo"
)

// ParseStatus accepts the two statuses case-insensitively; empty means
// Activo.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "activo":
		return StatusActive, nil
	case "inactivo":
		return StatusInactive, nil
	}
	return "", apperror.NewValidation("invalid status").
		WithDetail("field", "status").
		WithDetail("value", s)
}

// Ente is a registered public-sector organization.
type Ente struct {
	entity.Base

	// Folio is assigned at registration and never recomputed.
	Folio string `db:"folio" json:"folio"`
	// FolioSeq is the numeric suffix of Folio, unique across all years
	// and classes.
	FolioSeq int64      `db:"folio_seq" json:"-"`
	Name     string     `db:"name" json:"name"`
	Type     folio.Type `db:"type" json:"type"`

	Purpose             string     `db:"purpose" json:"purpose"`
	Address             string     `db:"address" json:"address"`
	CreationInstrument  string     `db:"creation_instrument" json:"creationInstrument"`
	CreationDate        *time.Time `db:"creation_date" json:"creationDate,omitempty"`
	OfficialPublication string     `db:"official_publication" json:"officialPublication"`
	Observations        string     `db:"observations" json:"observations"`
	Status              Status     `db:"status" json:"status"`
}

// Validate checks the invariants that hold after registration.
func (e *Ente) Validate(_ context.Context) error {
	if strings.TrimSpace(e.Name) == "" {
		return apperror.NewRequired("name")
	}
	if !e.Type.Valid() {
		return apperror.NewValidation("invalid entity type").
			WithDetail("field", "type").
			WithDetail("value", string(e.Type))
	}
	if e.Status != StatusActive && e.Status != StatusInactive {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(e.Status))
	}
	return nil
}

// IsActive reports whether the entity counts in dashboard totals.
func (e *Ente) IsActive() bool {
	return e.Status == StatusActive
}

// RegisterRequest is the input of Service.Register.
type RegisterRequest struct {
	Name                string
	Type                string
	Purpose             string
	Address             string
	Status              string
	CreationInstrument  string
	CreationDate        *time.Time
	OfficialPublication string
	Observations        string
}

// Registration is the outcome of a successful registration.
type Registration struct {
	Ente  *Ente
	Folio string
}
