package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"repopa/internal/core/apperror"
	"repopa/internal/domain/entes"
	"repopa/internal/infrastructure/storage/postgres"
)

const (
	folioConstraint    = "entes_folio_key"
	folioSeqConstraint = "entes_folio_seq_key"
)

// EnteRepo stores registered entities in "entes".
type EnteRepo struct {
	*BaseRepo[*entes.Ente]
}

var _ entes.Repository = (*EnteRepo)(nil)

// NewEnteRepo creates an EnteRepo.
func NewEnteRepo(db postgres.QuerierProvider) *EnteRepo {
	return &EnteRepo{
		BaseRepo: NewBaseRepo(db, BaseConfig[*entes.Ente]{
			Table:        "entes",
			Columns:      postgres.ExtractDBColumns[entes.Ente](),
			SearchCols:   []string{"name", "folio"},
			DefaultOrder: "name ASC",
			New:          func() *entes.Ente { return &entes.Ente{} },
		}),
	}
}

// Create inserts the entity, reporting folio clashes as duplicates on
// the "folio" field.
func (r *EnteRepo) Create(ctx context.Context, e *entes.Ente) error {
	err := r.BaseRepo.Create(ctx, e)
	if err == nil {
		return nil
	}
	if pgErr, ok := postgres.PgError(err); ok && pgErr.Code == postgres.UniqueViolation &&
		(pgErr.ConstraintName == folioConstraint || pgErr.ConstraintName == folioSeqConstraint) {
		return apperror.NewDuplicate("ente", "folio", e.Folio).WithCause(err)
	}
	return err
}

// Update writes the editable columns. Folio, its sequence and the type
// are not part of the statement.
func (r *EnteRepo) Update(ctx context.Context, e *entes.Ente) error {
	data := r.columnData(e, "id", "version", "created_at", "created_by", "folio", "folio_seq", "type")

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": e.ID, "version": e.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, r.tableName, "update")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("ente", e.ID.String())
	}
	e.BumpVersion()
	return nil
}

// MaxSequence implements entes.Repository.
func (r *EnteRepo) MaxSequence(ctx context.Context, likePattern string) (int64, error) {
	sql, args, err := r.Builder().
		Select("COALESCE(MAX(folio_seq), 0)").
		From(r.tableName).
		Where(squirrel.Like{"folio": likePattern}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int64
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("max folio sequence: %w", err)
	}
	return n, nil
}

// Counts implements entes.Repository.
func (r *EnteRepo) Counts(ctx context.Context) (entes.Counts, error) {
	sql, args, err := r.countsQuery().ToSql()
	if err != nil {
		return entes.Counts{}, fmt.Errorf("build query: %w", err)
	}

	var c entes.Counts
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).
		Scan(&c.TotalEntities, &c.ActiveOrganisms, &c.ActiveTrusts, &c.ActiveEPEM)
	if err != nil {
		return entes.Counts{}, fmt.Errorf("count entes: %w", err)
	}
	return c, nil
}

func (r *EnteRepo) countsQuery() squirrel.SelectBuilder {
	return r.Builder().
		Select(
			"COUNT(*)",
			"COUNT(*) FILTER (WHERE type = 'OPD')",
			"COUNT(*) FILTER (WHERE type = 'Fideicomiso')",
			"COUNT(*) FILTER (WHERE type = 'EPEM')",
		).
		From(r.tableName).
		Where(squirrel.Eq{"status": string(entes.StatusActive)})
}

// Recent implements entes.Repository.
func (r *EnteRepo) Recent(ctx context.Context, limit int) ([]*entes.Ente, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"status": string(entes.StatusActive)}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	return r.FindAll(ctx, q)
}
