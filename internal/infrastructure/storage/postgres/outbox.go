package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain"
	"repopa/pkg/logger"
)

// OutboxStatus is the delivery state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultMaxRetries is the number of failed deliveries after which a
// message is parked as failed.
const DefaultMaxRetries = 5

// ErrNoTransaction is returned by OutboxPublisher outside a transaction.
var ErrNoTransaction = errors.New("outbox publish requires a transaction")

// OutboxMessage is a row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// OutboxPublisher writes domain events to sys_outbox so they commit or
// roll back together with the change that raised them.
type OutboxPublisher struct {
	db QuerierProvider
}

// NewOutboxPublisher creates an OutboxPublisher.
func NewOutboxPublisher(db QuerierProvider) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

// Publish implements domain.EventPublisher. When db is a TxManager the
// call must run inside a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	if m, ok := p.db.(*TxManager); ok && m.GetTx(ctx) == nil {
		return ErrNoTransaction
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = p.db.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id.New(), event.AggregateType, event.AggregateID, event.Type, payload,
		string(OutboxStatusPending), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one message, typically to a broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle implements OutboxHandler.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error { return f(ctx, msg) }

// OutboxRelay moves pending messages to a handler. Several relays may run
// at once: each batch is claimed with FOR UPDATE SKIP LOCKED inside its
// own transaction.
type OutboxRelay struct {
	txManager  tx.Manager
	db         QuerierProvider
	batchSize  int
	maxRetries int
	handler    OutboxHandler
	now        func() time.Time
}

// NewOutboxRelay creates a relay over the TxManager.
func NewOutboxRelay(m *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	return newOutboxRelay(m, m, batchSize, handler)
}

func newOutboxRelay(txm tx.Manager, db QuerierProvider, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager:  txm,
		db:         db,
		batchSize:  batchSize,
		maxRetries: DefaultMaxRetries,
		handler:    handler,
		now:        time.Now,
	}
}

// ProcessBatch delivers up to batchSize due messages and returns how many
// were delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var msgs []*OutboxMessage
		err := pgxscan.Select(ctx, r.db.GetQuerier(ctx), &msgs, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED`, string(OutboxStatusPending), r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range msgs {
			ok, err := r.deliver(ctx, msg)
			if err != nil {
				return err
			}
			if ok {
				processed++
			}
		}
		return nil
	})
	return processed, err
}

// deliver hands msg to the handler and records the outcome. The bool is
// false when the handler failed; the error is only set when the outcome
// could not be stored.
func (r *OutboxRelay) deliver(ctx context.Context, msg *OutboxMessage) (bool, error) {
	q := r.db.GetQuerier(ctx)
	now := r.now().UTC()

	if herr := r.handler.Handle(ctx, msg); herr != nil {
		attempts := msg.RetryCount + 1
		status := OutboxStatusPending
		if attempts >= r.maxRetries {
			status = OutboxStatusFailed
		}
		// linear backoff: one more minute per attempt
		next := now.Add(time.Duration(attempts) * time.Minute)

		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID, "event_type", msg.EventType, "attempt", attempts, "error", herr)

		_, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
			WHERE id = $5`, attempts, herr.Error(), next, string(status), msg.ID)
		if err != nil {
			return false, fmt.Errorf("record outbox failure: %w", err)
		}
		return false, nil
	}

	_, err := q.Exec(ctx, `
		UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
		string(OutboxStatusPublished), now, msg.ID)
	if err != nil {
		return false, fmt.Errorf("mark outbox message published: %w", err)
	}
	return true, nil
}

// CleanupPublished deletes messages published before olderThan ago.
func (r *OutboxRelay) CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		string(OutboxStatusPublished), r.now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("cleanup outbox: %w", err)
	}
	return res.RowsAffected(), nil
}
