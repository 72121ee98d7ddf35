// Package power keeps the powers of attorney granted by each entity.
package power

import (
	"context"
	"strings"
	"time"

	"repopa/internal/core/apperror"
	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

// Power is a grant of authority to one or more attorneys.
type Power struct {
	entity.Base

	EntityID  id.ID      `db:"entity_id" json:"entityId"`
	PowerType string     `db:"power_type" json:"powerType"`
	Attorneys []string   `db:"attorneys" json:"attorneys"`
	GrantDate *time.Time `db:"grant_date" json:"grantDate,omitempty"`
	Document  string     `db:"document" json:"document"`

	// Revocation describes the revocation instrument; empty while the
	// power stands.
	Revocation string `db:"revocation" json:"revocation"`
	Validity   string `db:"validity" json:"validity"`
}

// NewPower creates an empty power for entityID.
func NewPower(entityID id.ID) *Power {
	return &Power{Base: entity.NewBase(), EntityID: entityID}
}

// Revoked reports whether a revocation was recorded.
func (p *Power) Revoked() bool {
	return strings.TrimSpace(p.Revocation) != ""
}

// GetEntityID implements records.Attached.
func (p *Power) GetEntityID() id.ID { return p.EntityID }

var _ records.Attached = (*Power)(nil)

// Validate implements entity.Validatable.
func (p *Power) Validate(_ context.Context) error {
	if err := records.RequireEntity(p.EntityID); err != nil {
		return err
	}
	if err := records.RequireText("powerType", p.PowerType); err != nil {
		return err
	}
	if len(CleanAttorneys(p.Attorneys)) == 0 {
		return apperror.NewValidation("at least one attorney is required").
			WithDetail("field", "attorneys")
	}
	return nil
}

// CleanAttorneys trims names and drops blanks and repeats, keeping order.
func CleanAttorneys(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
