// Package records holds what the registry keeps about each entity besides
// its registration: governing body members, directors, powers of
// attorney, regulatory documents and information requests.
//
// Every record kind lives in its own subpackage and is served by a
// Service built on domain.RecordService.
package records

import (
	"context"
	"strings"
	"time"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
	"repopa/internal/domain/audit"
)

// Repository is the storage contract of a record table attached to
// registered entities.
type Repository[T domain.Record] interface {
	domain.Repository[T]

	// ListByEntity returns every record of entityID.
	ListByEntity(ctx context.Context, entityID id.ID) ([]T, error)
}

// Config wires a Service. Audit and Events are optional.
type Config[T domain.Record] struct {
	Repo      Repository[T]
	TxManager tx.Manager
	Audit     audit.Logger
	Events    domain.EventPublisher
}

// Service is the CRUD service of one record kind.
type Service[T domain.Record] struct {
	*domain.RecordService[T]
	repo Repository[T]
}

// NewService creates a Service for the record kind name.
func NewService[T domain.Record](name string, cfg Config[T]) *Service[T] {
	return &Service[T]{
		RecordService: domain.NewRecordService(domain.RecordServiceConfig[T]{
			Repo:       cfg.Repo,
			TxManager:  cfg.TxManager,
			Audit:      cfg.Audit,
			Events:     cfg.Events,
			EntityName: name,
		}),
		repo: cfg.Repo,
	}
}

// ListByEntity returns the records of one entity.
func (s *Service[T]) ListByEntity(ctx context.Context, entityID id.ID) ([]T, error) {
	items, err := s.repo.ListByEntity(ctx, entityID)
	if err != nil && !apperror.IsAppError(err) {
		return nil, apperror.NewStorage("list "+s.EntityName()+" by entity", err)
	}
	return items, err
}

// RequireEntity fails when entityID is unset.
func RequireEntity(entityID id.ID) error {
	if id.IsNil(entityID) {
		return apperror.NewRequired("entityId")
	}
	return nil
}

// RequireText fails when value is blank.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.NewRequired(field)
	}
	return nil
}

// CheckOrder fails when both dates are set and to is before from.
func CheckOrder(fromField string, from *time.Time, toField string, to *time.Time) error {
	if from == nil || to == nil || !to.Before(*from) {
		return nil
	}
	return apperror.NewValidation(toField+" is before "+fromField).
		WithDetail("field", toField)
}

// ParseStatus matches raw case-insensitively against allowed. Empty input
// yields the first allowed value.
func ParseStatus[S ~string](raw string, allowed ...S) (S, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return allowed[0], nil
	}
	for _, s := range allowed {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", apperror.NewValidation("invalid status").
		WithDetail("field", "status").
		WithDetail("value", raw)
}
