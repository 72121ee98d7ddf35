// Command repopactl administers a REPOPA installation: schema migrations,
// the first administrator account, folio previews and legacy imports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repopa/internal/app"
	"repopa/internal/config"
	"repopa/pkg/logger"
)

var version = "dev"

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "repopactl",
	Short:         "Administration tool for the REPOPA registry",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./repopa.yaml or /etc/repopa/repopa.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override (debug, info, warn, error)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// session is what commands that touch the database work with.
type session struct {
	ctx context.Context
	cfg *config.Config
	log *logger.Logger
	app *app.App
}

// openSession loads the config, connects and wires services. close must
// be called when done.
func openSession(cmd *cobra.Command) (*session, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		return nil, nil, err
	}
	ctx := logger.WithLogger(cmd.Context(), log)

	pool, err := app.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	closeFn := func() {
		pool.Close()
		_ = log.Sync()
	}
	return &session{ctx: ctx, cfg: cfg, log: log, app: a}, closeFn, nil
}
