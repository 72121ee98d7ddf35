package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"repopa/internal/core/apperror"
)

// SQLSTATE codes mapped to application errors.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
	NotNullViolation    = "23502"
)

// PgError extracts the server error from err.
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// HasCode reports whether err is a server error with the given SQLSTATE.
func HasCode(err error, code string) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == code
}

// MapWriteError converts constraint violations raised by INSERT/UPDATE on
// table into AppErrors. Other errors are wrapped unchanged.
func MapWriteError(err error, table, op string) error {
	if err == nil {
		return nil
	}
	pgErr, ok := PgError(err)
	if !ok {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}

	switch pgErr.Code {
	case UniqueViolation:
		return apperror.NewDuplicate(table, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case ForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case CheckViolation, NotNullViolation:
		return apperror.NewValidation("value rejected by database constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithDetail("column", pgErr.ColumnName).
			WithCause(err)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
