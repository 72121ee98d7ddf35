package inforequest

import (
	"context"
	"time"

	"repopa/internal/domain"
	"repopa/internal/domain/records"
)

// EntityName is used in audit rows and events.
const EntityName = "InformationRequest"

// Repository stores information requests.
type Repository = records.Repository[*Request]

// Service manages information requests.
type Service struct {
	*records.Service[*Request]

	// now defaults to time.Now; dates are truncated to the day.
	now func() time.Time
}

// NewService creates a Service. now may be nil.
func NewService(cfg records.Config[*Request], now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	s := &Service{Service: records.NewService(EntityName, cfg), now: now}
	s.Hooks().On(domain.BeforeCreate, s.beforeCreate)
	s.Hooks().On(domain.BeforeUpdate, s.beforeUpdate)
	return s
}

func (s *Service) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) beforeCreate(_ context.Context, r *Request) error {
	today := s.today()
	if r.RequestDate == nil {
		r.RequestDate = &today
	}
	return r.applyStatus(today)
}

func (s *Service) beforeUpdate(_ context.Context, r *Request) error {
	return r.applyStatus(s.today())
}
