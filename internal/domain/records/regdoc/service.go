package regdoc

import "repopa/internal/domain/records"

const EntityName = "RegulatoryDocument"

type Repository = records.Repository[*Document]

// Service manages regulatory documents.
type Service struct {
	*records.Service[*Document]
}

func NewService(cfg records.Config[*Document]) *Service {
	return &Service{Service: records.NewService(EntityName, cfg)}
}
