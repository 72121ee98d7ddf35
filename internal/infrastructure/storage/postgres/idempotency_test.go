package postgres

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
)

func TestIdempotencyStore_Resolve(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	base := IdempotencyRecord{Key: "k1", UserID: "u1", Operation: "POST /api/v1/entes", RequestHash: "h1"}

	t.Run("different request", func(t *testing.T) {
		s := NewIdempotencyStore(StaticQuerier{Q: &mockQuerier{}}, time.Hour)
		_, err := s.resolve(ctx, base, "u1", "POST /api/v1/entes", "other", now)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeIdempotency, appErr.Code)
		assert.Equal(t, "Idempotency key mismatch", appErr.Message)
	})

	t.Run("finished request is replayed", func(t *testing.T) {
		s := NewIdempotencyStore(StaticQuerier{Q: &mockQuerier{}}, time.Hour)
		rec := base
		rec.Status = IdempotencyStatusSuccess
		rec.StatusCode = http.StatusCreated
		rec.Response = []byte(`{"folio":"F"}`)

		replay, err := s.resolve(ctx, rec, "u1", "POST /api/v1/entes", "h1", now)
		require.NoError(t, err)
		require.NotNil(t, replay)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.JSONEq(t, `{"folio":"F"}`, string(replay.Body))
	})

	t.Run("running request conflicts", func(t *testing.T) {
		s := NewIdempotencyStore(StaticQuerier{Q: &mockQuerier{}}, time.Hour)
		rec := base
		rec.Status = IdempotencyStatusPending
		rec.UpdatedAt = now.Add(-10 * time.Second)

		_, err := s.resolve(ctx, rec, "u1", "POST /api/v1/entes", "h1", now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})

	t.Run("stale request is taken over", func(t *testing.T) {
		q := &mockQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
		s := NewIdempotencyStore(StaticQuerier{Q: q}, time.Hour)
		rec := base
		rec.Status = IdempotencyStatusPending
		rec.UpdatedAt = now.Add(-5 * time.Minute)

		replay, err := s.resolve(ctx, rec, "u1", "POST /api/v1/entes", "h1", now)
		require.NoError(t, err)
		assert.Nil(t, replay)
		assert.Contains(t, q.last().sql, "UPDATE sys_idempotency")

		q.tag = pgconn.NewCommandTag("UPDATE 0")
		_, err = s.resolve(ctx, rec, "u1", "POST /api/v1/entes", "h1", now)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})
}

func TestIdempotencyStore_CompleteKey(t *testing.T) {
	q := &mockQuerier{}
	s := NewIdempotencyStore(StaticQuerier{Q: q}, time.Hour)

	require.NoError(t, s.CompleteKey(context.Background(), "k1", http.StatusCreated, "application/json", []byte(`{}`)))
	call := q.last()
	assert.Equal(t, "success", call.args[0])
	assert.Equal(t, http.StatusCreated, call.args[2])
	assert.Equal(t, "k1", call.args[5])
}
