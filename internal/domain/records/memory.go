package records

import (
	"context"
	"reflect"
	"sync"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain"
)

// Attached is implemented by records that belong to an entity.
type Attached interface {
	domain.Record
	GetEntityID() id.ID
}

// MemoryRepository is an in-process Repository for tests and offline
// tools. Rows are copied in and out, so callers never share memory with
// the store. List honours EntityID, IDs, Limit and Offset only.
type MemoryRepository[T Attached] struct {
	mu    sync.Mutex
	rows  map[id.ID]T
	order []id.ID
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository[T Attached]() *MemoryRepository[T] {
	return &MemoryRepository[T]{rows: make(map[id.ID]T)}
}

func clone[T any](v T) T {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface().(T)
}

// Create implements Repository.
func (m *MemoryRepository[T]) Create(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.GetID()]; ok {
		return apperror.NewDuplicate("record", "id", rec.GetID().String())
	}
	m.rows[rec.GetID()] = clone(rec)
	m.order = append(m.order, rec.GetID())
	return nil
}

// GetByID implements Repository.
func (m *MemoryRepository[T]) GetByID(_ context.Context, recID id.ID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[recID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("record", recID.String())
	}
	return clone(rec), nil
}

// Update implements Repository.
func (m *MemoryRepository[T]) Update(_ context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[rec.GetID()]
	if !ok || stored.GetVersion() != rec.GetVersion() {
		return apperror.NewConcurrentModification("record", rec.GetID().String())
	}
	if v, ok := any(rec).(interface{ BumpVersion() }); ok {
		v.BumpVersion()
	}
	m.rows[rec.GetID()] = clone(rec)
	return nil
}

// Delete implements Repository.
func (m *MemoryRepository[T]) Delete(_ context.Context, recID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[recID]; !ok {
		return apperror.NewNotFound("record", recID.String())
	}
	delete(m.rows, recID)
	for i, v := range m.order {
		if v == recID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// List implements Repository.
func (m *MemoryRepository[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var wanted map[id.ID]struct{}
	if len(f.IDs) > 0 {
		wanted = make(map[id.ID]struct{}, len(f.IDs))
		for _, v := range f.IDs {
			wanted[v] = struct{}{}
		}
	}

	matched := make([]T, 0, len(m.order))
	for _, recID := range m.order {
		rec := m.rows[recID]
		if f.EntityID != nil && rec.GetEntityID() != *f.EntityID {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[recID]; !ok {
				continue
			}
		}
		matched = append(matched, clone(rec))
	}

	res := domain.ListResult[T]{TotalCount: int64(len(matched)), Limit: f.Limit, Offset: f.Offset}
	if f.Offset < len(matched) {
		matched = matched[f.Offset:]
	} else {
		matched = matched[:0]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	res.Items = matched
	return res, nil
}

// ListByEntity implements Repository, oldest first.
func (m *MemoryRepository[T]) ListByEntity(ctx context.Context, entityID id.ID) ([]T, error) {
	res, err := m.List(ctx, domain.ListFilter{EntityID: &entityID})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Len returns the number of stored rows.
func (m *MemoryRepository[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
