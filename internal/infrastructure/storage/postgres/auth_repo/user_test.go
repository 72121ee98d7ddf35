package auth_repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	"repopa/internal/core/security"
	"repopa/internal/domain/auth"
	"repopa/internal/infrastructure/storage/postgres"
)

type fakeQuerier struct {
	sql     []string
	args    [][]any
	tag     pgconn.CommandTag
	execErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.tag, f.execErr
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return pgx.ErrNoRows }

func TestUserRepo_CreateDuplicateEmail(t *testing.T) {
	q := &fakeQuerier{execErr: &pgconn.PgError{Code: postgres.UniqueViolation, ConstraintName: "users_email_key"}}
	repo := NewUserRepo(postgres.StaticQuerier{Q: q})

	err := repo.Create(context.Background(), auth.NewUser("a@b.mx", "hash", "A", security.RoleReader))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
	require.Len(t, q.sql, 1)
	assert.Contains(t, q.sql[0], "INSERT INTO users (id,version,created_at")
}

func TestUserRepo_UpdateQuery(t *testing.T) {
	repo := NewUserRepo(postgres.StaticQuerier{Q: &fakeQuerier{}})
	u := auth.NewUser("a@b.mx", "hash", "A", security.RoleEditor)
	u.Version = 4

	sql, args, err := repo.updateQuery(u).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $8 AND version = $9")
	assert.NotContains(t, sql, "password_hash")
	assert.NotContains(t, sql, "email")
	assert.Equal(t, 4, args[len(args)-1])
}

func TestUserRepo_UpdateStaleVersion(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewUserRepo(postgres.StaticQuerier{Q: q})
	u := auth.NewUser("a@b.mx", "hash", "A", security.RoleEditor)

	err := repo.Update(context.Background(), u)
	assert.True(t, apperror.IsConcurrentModification(err))
	assert.Equal(t, 1, u.Version)
}

func TestUserRepo_ListWhere(t *testing.T) {
	repo := NewUserRepo(postgres.StaticQuerier{Q: &fakeQuerier{}})
	active := true

	sql, args, err := squirrel.Select("id").From("users").
		Where(repo.listWhere(auth.UserFilter{Search: "ana", Role: security.RoleEditor, IsActive: &active})).
		PlaceholderFormat(squirrel.Dollar).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE ((email ILIKE $1 OR name ILIKE $2) AND role = $3 AND is_active = $4)", sql)
	assert.Equal(t, []any{"%ana%", "%ana%", "Editor", true}, args)
}

func TestTokenRepo_CleanupExpired(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("DELETE 3")}
	repo := NewTokenRepo(postgres.StaticQuerier{Q: q})
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	n, err := repo.CleanupExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []any{now, now.Add(-7 * 24 * time.Hour)}, q.args[0])
}
