package director

import (
	"context"

	"repopa/internal/core/id"
	"repopa/internal/domain/records"
)

const EntityName = "Director"

type Repository = records.Repository[*Director]

// Service manages directors.
type Service struct {
	*records.Service[*Director]
}

func NewService(cfg records.Config[*Director]) *Service {
	return &Service{Service: records.NewService(EntityName, cfg)}
}

// Current returns the open terms of entityID.
func (s *Service) Current(ctx context.Context, entityID id.ID) ([]*Director, error) {
	all, err := s.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]*Director, 0, len(all))
	for _, d := range all {
		if d.Current() {
			out = append(out, d)
		}
	}
	return out, nil
}
