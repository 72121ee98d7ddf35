package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	q := &mockQuerier{}
	p := NewOutboxPublisher(StaticQuerier{Q: q})
	aggID := id.New()

	err := p.Publish(context.Background(), domain.Event{
		AggregateType: "Ente",
		AggregateID:   aggID,
		Type:          "EnteRegistered",
		Payload:       map[string]any{"folio": "SAyF-PF-REPOPA-IDV-OPD-2025-001"},
	})
	require.NoError(t, err)

	call := q.last()
	assert.Contains(t, call.sql, "INSERT INTO sys_outbox")
	assert.Equal(t, "Ente", call.args[1])
	assert.Equal(t, aggID, call.args[2])
	assert.Equal(t, "EnteRegistered", call.args[3])
	assert.Equal(t, "pending", call.args[5])

	var payload map[string]string
	require.NoError(t, json.Unmarshal(call.args[4].([]byte), &payload))
	assert.Equal(t, "SAyF-PF-REPOPA-IDV-OPD-2025-001", payload["folio"])
}

func TestOutboxPublisher_RequiresTransaction(t *testing.T) {
	p := NewOutboxPublisher(&TxManager{})
	err := p.Publish(context.Background(), domain.Event{Type: "EnteRegistered"})
	assert.ErrorIs(t, err, ErrNoTransaction)
}

func TestOutboxRelay_Deliver(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	q := &mockQuerier{}

	var delivered []string
	handler := OutboxHandlerFunc(func(_ context.Context, msg *OutboxMessage) error {
		if msg.EventType == "Broken" {
			return errors.New("broker unavailable")
		}
		delivered = append(delivered, msg.EventType)
		return nil
	})
	r := newOutboxRelay(tx.Passthrough, StaticQuerier{Q: q}, 10, handler)
	r.now = func() time.Time { return now }

	ok, err := r.deliver(context.Background(), &OutboxMessage{ID: id.New(), EventType: "EnteRegistered"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"EnteRegistered"}, delivered)
	assert.Equal(t, "published", q.last().args[0])

	ok, err = r.deliver(context.Background(), &OutboxMessage{ID: id.New(), EventType: "Broken", RetryCount: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	call := q.last()
	assert.Equal(t, 2, call.args[0])
	assert.Equal(t, "broker unavailable", call.args[1])
	assert.Equal(t, now.Add(2*time.Minute), call.args[2])
	assert.Equal(t, "pending", call.args[3])

	_, err = r.deliver(context.Background(), &OutboxMessage{ID: id.New(), EventType: "Broken", RetryCount: DefaultMaxRetries - 1})
	require.NoError(t, err)
	assert.Equal(t, "failed", q.last().args[3])
}

func TestOutboxRelay_DeliverStoreFailure(t *testing.T) {
	q := &mockQuerier{execErr: errors.New("connection reset")}
	r := newOutboxRelay(tx.Passthrough, StaticQuerier{Q: q}, 0, OutboxHandlerFunc(func(context.Context, *OutboxMessage) error {
		return nil
	}))
	assert.Equal(t, 100, r.batchSize)

	ok, err := r.deliver(context.Background(), &OutboxMessage{ID: id.New()})
	assert.False(t, ok)
	assert.Error(t, err)
}
