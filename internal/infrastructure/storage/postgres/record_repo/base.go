// Package record_repo provides PostgreSQL repositories for registered
// entities and the records attached to them.
package record_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain"
	"repopa/internal/domain/filter"
	"repopa/internal/infrastructure/storage/postgres"
)

// BaseRepo implements domain.Repository for a table whose rows scan into T
// (a pointer to a struct with "db" tags). Embed it in concrete repos.
type BaseRepo[T domain.Record] struct {
	db         postgres.QuerierProvider
	tableName  string
	selectCols []string
	searchCols []string
	orderBy    string
	newFn      func() T
}

// BaseConfig configures a BaseRepo.
type BaseConfig[T domain.Record] struct {
	Table      string
	Columns    []string
	SearchCols []string

	// DefaultOrder is used when the filter carries none.
	DefaultOrder string
	New          func() T
}

// NewBaseRepo creates a BaseRepo.
func NewBaseRepo[T domain.Record](db postgres.QuerierProvider, cfg BaseConfig[T]) *BaseRepo[T] {
	order := cfg.DefaultOrder
	if order == "" {
		order = "created_at DESC"
	}
	return &BaseRepo[T]{
		db:         db,
		tableName:  cfg.Table,
		selectCols: cfg.Columns,
		searchCols: cfg.SearchCols,
		orderBy:    order,
		newFn:      cfg.New,
	}
}

// Builder returns a squirrel builder with $n placeholders.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Table is the table name.
func (r *BaseRepo[T]) Table() string { return r.tableName }

// Querier returns the querier bound to ctx.
func (r *BaseRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.db.GetQuerier(ctx)
}

func (r *BaseRepo[T]) columnData(rec T, skip ...string) map[string]any {
	data := postgres.StructToMap(rec)
	out := make(map[string]any, len(r.selectCols))
outer:
	for _, col := range r.selectCols {
		for _, s := range skip {
			if col == s {
				continue outer
			}
		}
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

// Create inserts rec.
func (r *BaseRepo[T]) Create(ctx context.Context, rec T) error {
	data := r.columnData(rec)
	if len(data) == 0 {
		return fmt.Errorf("%s: no db columns in %T", r.tableName, rec)
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapWriteError(err, r.tableName, "insert")
	}
	return nil
}

// Update writes rec when the stored version equals rec's version.
// On success the in-memory version is bumped too.
func (r *BaseRepo[T]) Update(ctx context.Context, rec T) error {
	sql, args, err := r.updateQuery(rec).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, r.tableName, "update")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, rec.GetID().String())
	}

	if v, ok := any(rec).(interface{ BumpVersion() }); ok {
		v.BumpVersion()
	}
	return nil
}

func (r *BaseRepo[T]) updateQuery(rec T) squirrel.UpdateBuilder {
	// id, version and creation columns never change through Update
	data := r.columnData(rec, "id", "version", "created_at", "created_by")

	return r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": rec.GetID()}).
		Where(squirrel.Eq{"version": rec.GetVersion()})
}

func (r *BaseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// GetByID loads one row.
func (r *BaseRepo[T]) GetByID(ctx context.Context, recID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": recID}).Limit(1), recID.String())
}

// FindOne runs q and scans a single row. ref identifies the row in the
// not-found error.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (T, error) {
	rec := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return rec, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return rec, apperror.NewNotFound(r.tableName, ref)
		}
		return rec, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return rec, nil
}

// FindAll runs q and scans every row.
func (r *BaseRepo[T]) FindAll(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

// ListByEntity returns every row attached to entityID.
func (r *BaseRepo[T]) ListByEntity(ctx context.Context, entityID id.ID) ([]T, error) {
	q := r.baseSelect().Where(squirrel.Eq{"entity_id": entityID}).OrderBy(r.orderBy)
	return r.FindAll(ctx, q)
}

// ListByEntities returns the rows attached to any of entityIDs, grouped
// by entity.
func (r *BaseRepo[T]) ListByEntities(ctx context.Context, entityIDs []id.ID) ([]T, error) {
	if len(entityIDs) == 0 {
		return []T{}, nil
	}
	return r.FindAll(ctx, r.byEntitiesQuery(entityIDs))
}

func (r *BaseRepo[T]) byEntitiesQuery(entityIDs []id.ID) squirrel.SelectBuilder {
	return r.baseSelect().
		Where("entity_id = ANY(?)", entityIDs).
		OrderBy("entity_id", r.orderBy)
}

// ListByIDs returns the rows whose id is in ids, in no particular order.
func (r *BaseRepo[T]) ListByIDs(ctx context.Context, ids []id.ID) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return r.FindAll(ctx, r.baseSelect().Where("id = ANY(?)", ids))
}

// List returns a filtered page and the total row count.
func (r *BaseRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset, Items: []T{}}

	q, err := r.applyFilter(r.baseSelect(), f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	items, err := r.FindAll(ctx, q)
	if err != nil {
		return result, err
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}

func (r *BaseRepo[T]) applyFilter(q squirrel.SelectBuilder, f domain.ListFilter) (squirrel.SelectBuilder, error) {
	if f.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + f.Search + "%"
		or := make(squirrel.Or, 0, len(r.searchCols))
		for _, col := range r.searchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if f.EntityID != nil {
		q = q.Where(squirrel.Eq{"entity_id": *f.EntityID})
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	return r.applyAdvancedFilters(q, f.AdvancedFilters)
}

func (r *BaseRepo[T]) hasColumn(col string) bool {
	for _, c := range r.selectCols {
		if c == col {
			return true
		}
	}
	return false
}

// applyAdvancedFilters only accepts columns of the table.
func (r *BaseRepo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, items []filter.Item) (squirrel.SelectBuilder, error) {
	for _, it := range items {
		if !r.hasColumn(it.Field) {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", it.Field)
		}

		switch it.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{it.Field: it.Value})
		case filter.NotEqual, filter.NotInList:
			q = q.Where(squirrel.NotEq{it.Field: it.Value})
		case filter.Less:
			q = q.Where(squirrel.Lt{it.Field: it.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{it.Field: it.Value})
		case filter.Greater:
			q = q.Where(squirrel.Gt{it.Field: it.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{it.Field: it.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{it.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{it.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{it.Field: fmt.Sprintf("%%%v%%", it.Value)})
		case filter.NotContains:
			q = q.Where(squirrel.NotILike{it.Field: fmt.Sprintf("%%%v%%", it.Value)})
		default:
			return q, apperror.NewValidation("invalid filter operator").WithDetail("operator", string(it.Operator))
		}
	}
	return q, nil
}

// Delete removes the row. Rows still referenced elsewhere yield a Conflict.
func (r *BaseRepo[T]) Delete(ctx context.Context, recID id.ID) error {
	sql, args, err := r.Builder().Delete(r.tableName).Where(squirrel.Eq{"id": recID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.HasCode(err, postgres.ForeignKeyViolation) {
			return apperror.NewConflict("record is still referenced by other records").
				WithDetail("entity", r.tableName).
				WithDetail("id", recID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, recID.String())
	}
	return nil
}

// Exists reports whether a row with recID exists.
func (r *BaseRepo[T]) Exists(ctx context.Context, recID id.ID) (bool, error) {
	sql, args, err := r.Builder().Select("1").From(r.tableName).Where(squirrel.Eq{"id": recID}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

func (r *BaseRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return r.orderBy, nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = orderBy[1:]
	} else {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	if field == "" || !r.hasColumn(field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}
