package domain

import (
	"context"
	"fmt"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain/audit"
	"repopa/pkg/logger"
)

// RecordService is the create/read/update/delete flow shared by the
// records attached to a registered entity: validate, run hooks, write
// the row, its audit entry and its domain event in one transaction.
type RecordService[T Record] struct {
	repo      Repository[T]
	txManager tx.Manager
	audit     audit.Logger
	events    EventPublisher
	hooks     *HookRegistry[T]

	// entityName is used in errors, audit rows and event names.
	entityName string
}

// RecordServiceConfig configures a RecordService. Audit and Events are
// optional.
type RecordServiceConfig[T Record] struct {
	Repo       Repository[T]
	TxManager  tx.Manager
	Audit      audit.Logger
	Events     EventPublisher
	EntityName string
}

// NewRecordService creates a RecordService.
func NewRecordService[T Record](cfg RecordServiceConfig[T]) *RecordService[T] {
	s := &RecordService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		audit:      cfg.Audit,
		events:     cfg.Events,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	return s
}

// Hooks exposes the registry so packages can attach behaviour.
func (s *RecordService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName is the record kind handled by the service.
func (s *RecordService[T]) EntityName() string {
	return s.entityName
}

func (s *RecordService[T]) normalizeValidationErr(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *RecordService[T]) normalizeGetErr(err error, recID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, recID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorage("get "+s.entityName, err)
}

// Create validates and stores rec.
func (s *RecordService[T]) Create(ctx context.Context, rec T) error {
	if err := rec.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	audit.EnrichCreatedBy(ctx, rec)

	if err := s.hooks.Run(ctx, BeforeCreate, rec); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if err := s.audit.LogChange(ctx, s.entityName, rec.GetID(), audit.ActionCreate, audit.Snapshot(rec)); err != nil {
			return fmt.Errorf("audit %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   rec.GetID(),
			Type:          s.entityName + "Created",
			Payload:       rec,
		})
	})
	if err != nil {
		return s.wrapWriteErr("create", err)
	}

	if err := s.hooks.Run(ctx, AfterCreate, rec); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// GetByID returns one record.
func (s *RecordService[T]) GetByID(ctx context.Context, recID id.ID) (T, error) {
	rec, err := s.repo.GetByID(ctx, recID)
	return rec, s.normalizeGetErr(err, recID)
}

// List returns a page of records.
func (s *RecordService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	res, err := s.repo.List(ctx, filter)
	if err != nil && !apperror.IsAppError(err) {
		return res, apperror.NewStorage("list "+s.entityName, err)
	}
	return res, err
}

// Update validates and stores rec using optimistic locking.
func (s *RecordService[T]) Update(ctx context.Context, rec T) error {
	if err := rec.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	audit.EnrichUpdatedBy(ctx, rec)
	rec.Touch()

	if err := s.hooks.Run(ctx, BeforeUpdate, rec); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		before, err := s.repo.GetByID(ctx, rec.GetID())
		if err != nil {
			return s.normalizeGetErr(err, rec.GetID())
		}
		if err := s.repo.Update(ctx, rec); err != nil {
			return err
		}
		changes := audit.Diff(audit.Snapshot(before), audit.Snapshot(rec))
		if err := s.audit.LogChange(ctx, s.entityName, rec.GetID(), audit.ActionUpdate, changes); err != nil {
			return fmt.Errorf("audit %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   rec.GetID(),
			Type:          s.entityName + "Updated",
			Payload:       changes,
		})
	})
	if err != nil {
		return s.wrapWriteErr("update", err)
	}

	if err := s.hooks.Run(ctx, AfterUpdate, rec); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// Delete removes a record physically.
func (s *RecordService[T]) Delete(ctx context.Context, recID id.ID) error {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return s.normalizeGetErr(err, recID)
	}

	if err := s.hooks.Run(ctx, BeforeDelete, rec); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, recID); err != nil {
			return err
		}
		if err := s.audit.LogChange(ctx, s.entityName, recID, audit.ActionDelete, audit.Snapshot(rec)); err != nil {
			return fmt.Errorf("audit %s: %w", s.entityName, err)
		}
		return s.events.Publish(ctx, Event{
			AggregateType: s.entityName,
			AggregateID:   recID,
			Type:          s.entityName + "Deleted",
		})
	})
	if err != nil {
		return s.wrapWriteErr("delete", err)
	}

	if err := s.hooks.Run(ctx, AfterDelete, rec); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

func (s *RecordService[T]) wrapWriteErr(op string, err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewStorage(op+" "+s.entityName, err)
}
