// Package auth_repo stores users and refresh tokens.
package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain/auth"
	"repopa/internal/infrastructure/storage/postgres"
)

var userColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"email", "password_hash", "name", "role", "is_active",
	"failed_login_attempts", "locked_until", "last_login_at",
}

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	db      postgres.QuerierProvider
	builder squirrel.StatementBuilderType
}

var _ auth.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(db postgres.QuerierProvider) *UserRepo {
	return &UserRepo{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a user. A taken email maps to a duplicate error.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := r.builder.Insert("users").
		Columns(userColumns...).
		Values(
			user.ID, user.Version, user.CreatedAt, user.UpdatedAt, user.CreatedBy, user.UpdatedBy,
			user.Email, user.PasswordHash, user.Name, string(user.Role), user.IsActive,
			user.FailedLoginAttempts, user.LockedUntil, user.LastLoginAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.HasCode(err, postgres.UniqueViolation) {
			return apperror.NewDuplicate("User", "email", user.Email).WithCause(err)
		}
		return postgres.MapWriteError(err, "users", "insert")
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, ref string) (*auth.User, error) {
	sql, args, err := r.builder.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var user auth.User
	if err := pgxscan.Get(ctx, r.db.GetQuerier(ctx), &user, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", ref)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByEmail retrieves user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) updateQuery(user *auth.User) squirrel.UpdateBuilder {
	return r.builder.Update("users").
		Set("name", user.Name).
		Set("role", string(user.Role)).
		Set("is_active", user.IsActive).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("last_login_at", user.LastLoginAt).
		Set("updated_by", user.UpdatedBy).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version})
}

// Update writes the mutable columns under optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := r.updateQuery(user).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := r.db.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapWriteError(err, "users", "update")
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}
	user.BumpVersion()
	return nil
}

func (r *UserRepo) listWhere(filter auth.UserFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"email": like},
			squirrel.ILike{"name": like},
		})
	}
	if filter.Role != "" {
		where = append(where, squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.IsActive != nil {
		where = append(where, squirrel.Eq{"is_active": *filter.IsActive})
	}
	return where
}

// List retrieves users with filtering, ordered by email.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]*auth.User, int, error) {
	where := r.listWhere(filter)
	q := r.db.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	sel := r.builder.Select(userColumns...).From("users").Where(where).OrderBy("email ASC")
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		sel = sel.Offset(uint64(filter.Offset))
	}
	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build select: %w", err)
	}

	users := []*auth.User{}
	if err := pgxscan.Select(ctx, q, &users, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	return users, total, nil
}

// Exists checks if email is taken.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}
