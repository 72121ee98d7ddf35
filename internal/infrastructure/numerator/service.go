// Package numerator is the PostgreSQL implementation of the folio
// sequencer. Counters live in sys_sequences, one row per key.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	corenumerator "repopa/internal/core/numerator"
	"repopa/internal/infrastructure/storage/postgres"
)

var _ corenumerator.Sequencer = (*Service)(nil)

// Service increments counters with an upsert on the caller's
// transaction. The row lock taken by the upsert is held until that
// transaction ends, so concurrent callers get distinct, increasing values
// and a rolled-back registration gives its number back.
type Service struct {
	db postgres.QuerierProvider
}

// New creates a Service.
func New(db postgres.QuerierProvider) *Service {
	return &Service{db: db}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty sequence key")
	}
	return nil
}

// Next implements corenumerator.Sequencer.
func (s *Service) Next(ctx context.Context, key string) (int64, error) {
	if err := checkKey(key); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (key) DO UPDATE
			SET current_val = sys_sequences.current_val + 1, updated_at = NOW()
		RETURNING current_val`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return n, nil
}

// Current implements corenumerator.Sequencer. A missing row reads as 0.
func (s *Service) Current(ctx context.Context, key string) (int64, error) {
	if err := checkKey(key); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx,
		`SELECT current_val FROM sys_sequences WHERE key = $1`, key).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current %s: %w", key, err)
	}
	return n, nil
}

// Advance implements corenumerator.Sequencer. The counter never moves
// backwards.
func (s *Service) Advance(ctx context.Context, key string, atLeast int64) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if atLeast < 0 {
		atLeast = 0
	}
	_, err := s.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_sequences (key, current_val, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
			SET current_val = GREATEST(sys_sequences.current_val, EXCLUDED.current_val), updated_at = NOW()`,
		key, atLeast)
	if err != nil {
		return fmt.Errorf("advance %s: %w", key, err)
	}
	return nil
}
