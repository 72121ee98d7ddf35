package postgres

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// mockQuerier records Exec calls. Query and QueryRow are not supported.
type mockQuerier struct {
	mu      sync.Mutex
	calls   []execCall
	tag     pgconn.CommandTag
	execErr error
}

func (m *mockQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	return m.tag, m.execErr
}

func (m *mockQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("mockQuerier: Query not supported")
}

func (m *mockQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (m *mockQuerier) last() execCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type errRow struct{}

func (errRow) Scan(...any) error { return errors.New("mockQuerier: QueryRow not supported") }
