// Package main is the entry point for the REPOPA API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"repopa/internal/app"
	"repopa/internal/config"
	"repopa/internal/core/security"
	v1 "repopa/internal/infrastructure/http/v1"
	"repopa/internal/infrastructure/storage/postgres/migrations"
	"repopa/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

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

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting repopa server", "version", version, "env", cfg.AppEnv)

	if cfg.AutoMigrate {
		if err := migrate(cfg.DatabaseURL); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
		log.Info("database schema is up to date")
	}

	pool, err := app.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	a, err := app.New(cfg, pool)
	if err != nil {
		log.Fatalw("failed to wire services", "error", err)
	}

	// Other instances and the import tool write entes too; their commits
	// reach this process through LISTEN/NOTIFY.
	listener := a.StatsListener()
	listener.Start(ctx)
	defer listener.Stop()

	routerCfg := v1.RouterConfig{
		Logger:       log,
		Debug:        cfg.Development(),
		DB:           pool,
		Version:      version,
		JWTValidator: a.JWT,
		Policy:       security.MustDefault(),
		Auth:         a.Auth,
		Entes:        a.Entes,
		Reports:      a.Reports,
		Records:      a.Records,
	}
	if cfg.IdempotencyEnabled {
		routerCfg.Idempotency = a.Idempotency
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func migrate(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
	}
	m, err := migrations.New(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
