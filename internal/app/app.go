// Package app assembles repositories and services on top of one
// PostgreSQL pool. The binaries under cmd/ share it.
package app

import (
	"context"
	"fmt"
	"time"

	"repopa/internal/config"
	"repopa/internal/domain"
	"repopa/internal/domain/auth"
	"repopa/internal/domain/entes"
	"repopa/internal/domain/records"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/inforequest"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
	"repopa/internal/domain/reports"
	"repopa/internal/infrastructure/cache"
	v1 "repopa/internal/infrastructure/http/v1"
	"repopa/internal/infrastructure/numerator"
	"repopa/internal/infrastructure/storage/postgres"
	"repopa/internal/infrastructure/storage/postgres/auth_repo"
	"repopa/internal/infrastructure/storage/postgres/record_repo"
	"repopa/internal/infrastructure/storage/postgres/report_repo"
)

// History reports scan every change of the selected entities.
const reportStatementTimeout = 2 * time.Minute

// App holds the wired services.
type App struct {
	Config *config.Config
	Pool   *postgres.Pool
	Tx     *postgres.TxManager

	Audit       *postgres.AuditStore
	Outbox      *postgres.OutboxPublisher
	Idempotency *postgres.IdempotencyStore
	Stats       *cache.StatsCache
	JWT         *auth.JWTService

	Auth    *auth.Service
	Entes   *entes.Service
	Reports *reports.Service
	Records v1.RecordServices
}

// Connect opens the pool described by cfg.
func Connect(ctx context.Context, cfg *config.Config) (*postgres.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// New wires every service on pool.
func New(cfg *config.Config, pool *postgres.Pool) (*App, error) {
	txm := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txm)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}

	a := &App{
		Config:      cfg,
		Pool:        pool,
		Tx:          txm,
		Audit:       auditStore,
		Outbox:      postgres.NewOutboxPublisher(txm),
		Idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		Stats:       cache.NewStatsCache(cfg.StatsCacheTTL),
	}

	a.JWT = auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWTSecret,
		Issuer:         "repopa",
		AccessTokenTTL: cfg.JWTTTL,
	})
	authCfg := auth.DefaultServiceConfig()
	authCfg.MaxLoginAttempts = cfg.MaxLoginAttempts
	authCfg.LockDuration = cfg.LockoutDuration
	authCfg.RefreshTokenExpiry = cfg.RefreshTTL
	a.Auth = auth.NewService(
		auth_repo.NewUserRepo(txm),
		auth_repo.NewTokenRepo(txm),
		txm,
		a.JWT,
		authCfg,
	)

	a.Entes = entes.NewService(entes.Config{
		Repo:        record_repo.NewEnteRepo(txm),
		Sequencer:   numerator.New(txm),
		TxManager:   txm,
		Audit:       auditStore,
		Events:      a.Outbox,
		Cache:       a.Stats,
		UnknownType: cfg.UnknownTypePolicy(),
		MaxAttempts: cfg.FolioMaxAttempts,
	})

	a.Reports = reports.NewService(report_repo.NewReportRepo(txm), txm.WithStatementTimeout(reportStatementTimeout))

	a.Records = v1.RecordServices{
		GoverningBodies:     governingbody.NewService(recordConfig(a, record_repo.NewGoverningBodyRepo(txm))),
		Directors:           director.NewService(recordConfig(a, record_repo.NewDirectorRepo(txm))),
		Powers:              power.NewService(recordConfig(a, record_repo.NewPowerRepo(txm))),
		RegulatoryDocuments: regdoc.NewService(recordConfig(a, record_repo.NewRegDocRepo(txm))),
		InformationRequests: inforequest.NewService(recordConfig(a, record_repo.NewInfoRequestRepo(txm)), time.Now),
	}

	return a, nil
}

func recordConfig[T domain.Record](a *App, repo *record_repo.BaseRepo[T]) records.Config[T] {
	return records.Config[T]{
		Repo:      repo,
		TxManager: a.Tx,
		Audit:     a.Audit,
		Events:    a.Outbox,
	}
}

// StatsListener invalidates the dashboard cache whenever another process
// writes to entes.
func (a *App) StatsListener() *cache.Listener {
	l := cache.NewListener(a.Pool.Pool, cache.ChannelEntesChanged)
	l.On(cache.ChannelEntesChanged, a.Stats.OnEntesChanged)
	return l
}
