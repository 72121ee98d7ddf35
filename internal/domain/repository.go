// Package domain holds the contracts shared by the registry services:
// list filters, repositories, lifecycle hooks and domain events.
package domain

import (
	"context"

	"repopa/internal/core/entity"
	"repopa/internal/core/id"
	"repopa/internal/domain/filter"
)

// ListFilter contains the common list options.
type ListFilter struct {
	// Search matches the searchable text columns of the record (ILIKE).
	Search string

	// EntityID restricts records to one registered entity.
	EntityID *id.ID

	IDs []id.ID

	// AdvancedFilters are ad-hoc column conditions.
	AdvancedFilters []filter.Item

	// OrderBy is a column name, "-" prefix for descending.
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns the first page of 50 rows.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// ListResult is one page of records.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Record is implemented by every registry row type.
type Record interface {
	entity.Validatable
	entity.Identifiable
	Touch()
}

// Repository is the CRUD contract of a record table.
type Repository[T Record] interface {
	Create(ctx context.Context, rec T) error
	GetByID(ctx context.Context, id id.ID) (T, error)

	// Update writes rec when its version still matches, bumping it.
	Update(ctx context.Context, rec T) error

	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}

// HookEvent is a lifecycle point.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a lifecycle point. Before-hooks may veto by returning an
// error; after-hook errors are only logged.
type Hook[T any] func(ctx context.Context, rec T) error

// HookRegistry stores hooks per event.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers hook for event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks of event in registration order, stopping at the
// first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, rec T) error {
	for _, h := range r.hooks[event] {
		if err := h(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
