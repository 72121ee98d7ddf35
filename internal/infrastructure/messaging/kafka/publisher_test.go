package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/id"
	"repopa/internal/infrastructure/storage/postgres"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublisher_Handle(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w)
	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "Ente",
		AggregateID:   id.New(),
		EventType:     "EnteCreated",
		Payload:       []byte(`{"folio":"SAyF-PF-REPOPA-IEDD-OPD-2025-001"}`),
		CreatedAt:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Handle(context.Background(), msg))
	require.Len(t, w.msgs, 1)

	got := w.msgs[0]
	assert.Equal(t, msg.AggregateID.String(), string(got.Key))
	assert.JSONEq(t, string(msg.Payload), string(got.Value))
	assert.Equal(t, "EnteCreated", header(got, HeaderEventType))
	assert.Equal(t, "Ente", header(got, HeaderAggregateType))
	assert.Equal(t, msg.ID.String(), header(got, HeaderMessageID))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_HandleError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewPublisher(&fakeWriter{err: boom})

	err := p.Handle(context.Background(), &postgres.OutboxMessage{EventType: "EnteCreated"})
	assert.ErrorIs(t, err, boom)
}

func TestNewWriter(t *testing.T) {
	_, err := NewWriter(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = NewWriter(Config{Brokers: []string{"k1:9092"}})
	assert.Error(t, err)

	w, err := NewWriter(Config{Brokers: []string{" k1:9092, k2:9092 "}, Topic: "repopa.events"})
	require.NoError(t, err)
	assert.Equal(t, "repopa.events", w.Topic)
	assert.NotNil(t, w.Addr)
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2", "c:3"}, ParseBrokers([]string{"a:1, b:2", "", " c:3 "}))
	assert.Empty(t, ParseBrokers(nil))
}
