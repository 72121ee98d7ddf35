package power

import (
	"context"

	"repopa/internal/domain"
	"repopa/internal/domain/records"
)

// EntityName is used in audit rows and events.
const EntityName = "Power"

// Repository stores powers.
type Repository = records.Repository[*Power]

// Service manages powers of attorney.
type Service struct {
	*records.Service[*Power]
}

// NewService creates a Service.
func NewService(cfg records.Config[*Power]) *Service {
	s := &Service{Service: records.NewService(EntityName, cfg)}
	clean := func(_ context.Context, p *Power) error {
		p.Attorneys = CleanAttorneys(p.Attorneys)
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, clean)
	s.Hooks().On(domain.BeforeUpdate, clean)
	return s
}
