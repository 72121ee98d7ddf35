// Package main is the entry point for the REPOPA background worker. It
// relays outbox events to Kafka and purges expired sessions and
// idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"repopa/internal/app"
	"repopa/internal/config"
	"repopa/internal/infrastructure/messaging/kafka"
	"repopa/internal/infrastructure/storage/postgres"
	"repopa/pkg/logger"
)

// publishedRetention is how long delivered outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

func main() {
	configFile := pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting repopa worker")

	pool, err := app.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	a, err := app.New(cfg, pool)
	if err != nil {
		log.Fatalw("failed to wire services", "error", err)
	}

	handler, closeHandler := outboxHandler(cfg, log)
	defer closeHandler()

	worker := NewWorker(a, postgres.NewOutboxRelay(a.Tx, cfg.OutboxBatchSize, handler), log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, cfg.OutboxPollInterval, cfg.CleanupInterval)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// outboxHandler publishes to Kafka when brokers are configured. Without
// brokers events are only logged and marked published.
func outboxHandler(cfg *config.Config, log *logger.Logger) (postgres.OutboxHandler, func()) {
	if len(kafka.ParseBrokers(cfg.KafkaBrokers)) == 0 {
		log.Warn("no kafka brokers configured; outbox events will be logged only")
		return postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			logger.Info(ctx, "outbox event", "event_type", msg.EventType, "aggregate_id", msg.AggregateID)
			return nil
		}), func() {}
	}

	w, err := kafka.NewWriter(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	if err != nil {
		log.Fatalw("failed to configure kafka", "error", err)
	}
	log.Infow("relaying outbox to kafka", "topic", cfg.KafkaTopic, "brokers", kafka.ParseBrokers(cfg.KafkaBrokers))
	return kafka.NewPublisher(w), func() {
		if err := w.Close(); err != nil {
			log.Warnw("failed to close kafka writer", "error", err)
		}
	}
}

// Worker runs the periodic jobs.
type Worker struct {
	app   *app.App
	relay *postgres.OutboxRelay
	log   *logger.Logger
}

func NewWorker(a *app.App, relay *postgres.OutboxRelay, log *logger.Logger) *Worker {
	return &Worker{
		app:   a,
		relay: relay,
		log:   log.WithComponent("worker"),
	}
}

// Run polls the outbox every poll and cleans up every cleanup until ctx
// is cancelled.
func (w *Worker) Run(ctx context.Context, poll, cleanup time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanup)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanupSessions(ctx)
			w.cleanupIdempotency(ctx)
			w.cleanupOutbox(ctx)
			w.app.Pool.LogStats(ctx)
		}
	}
}

// processOutbox drains full batches before waiting for the next tick.
func (w *Worker) processOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.app.Config.OutboxBatchSize {
			return
		}
	}
}

func (w *Worker) cleanupSessions(ctx context.Context) {
	n, err := w.app.Auth.CleanupTokens(ctx)
	if err != nil {
		w.log.Errorw("failed to clean up sessions", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up expired sessions", "count", n)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.app.Idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

func (w *Worker) cleanupOutbox(ctx context.Context) {
	n, err := w.relay.CleanupPublished(ctx, publishedRetention)
	if err != nil {
		w.log.Errorw("failed to clean up outbox", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up published outbox messages", "count", n)
	}
}
