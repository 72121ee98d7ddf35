package governingbody

import (
	"context"
	"strings"

	"repopa/internal/domain"
	"repopa/internal/domain/records"
)

// EntityName is used in audit rows and events.
const EntityName = "GoverningBodyMember"

// Repository stores members.
type Repository = records.Repository[*Member]

// Service manages governing body members.
type Service struct {
	*records.Service[*Member]
}

// NewService creates a Service.
func NewService(cfg records.Config[*Member]) *Service {
	s := &Service{Service: records.NewService(EntityName, cfg)}
	s.Hooks().On(domain.BeforeCreate, normalize)
	s.Hooks().On(domain.BeforeUpdate, normalize)
	return s
}

func normalize(_ context.Context, m *Member) error {
	status, err := ParseStatus(string(m.Status))
	if err != nil {
		return err
	}
	m.Status = status
	m.MemberName = strings.TrimSpace(m.MemberName)
	m.Position = strings.TrimSpace(m.Position)
	return nil
}
