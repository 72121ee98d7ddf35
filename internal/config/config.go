// Package config loads process settings from the environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"repopa/internal/core/folio"
)

// Config holds every setting the binaries read.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	AppPort     string `mapstructure:"app_port"`
	AppEnv      string `mapstructure:"app_env"`
	LogLevel    string `mapstructure:"log_level"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`

	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTTTL           time.Duration `mapstructure:"jwt_ttl"`
	RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`

	FolioUnknownType string `mapstructure:"folio_unknown_type"`
	FolioMaxAttempts int    `mapstructure:"folio_max_attempts"`

	IdempotencyEnabled bool          `mapstructure:"idempotency_enabled"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
	StatsCacheTTL      time.Duration `mapstructure:"stats_cache_ttl"`

	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`

	OutboxBatchSize    int           `mapstructure:"outbox_batch_size"`
	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
}

// defaultJWTSecret is only accepted outside production.
const defaultJWTSecret = "repopa-dev-secret-change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "")
	v.SetDefault("app_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("auto_migrate", false)

	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_ttl", 15*time.Minute)
	v.SetDefault("refresh_ttl", 7*24*time.Hour)
	v.SetDefault("max_login_attempts", 5)
	v.SetDefault("lockout_duration", 15*time.Minute)

	v.SetDefault("folio_unknown_type", "default")
	v.SetDefault("folio_max_attempts", 3)

	v.SetDefault("idempotency_enabled", true)
	v.SetDefault("idempotency_ttl", 24*time.Hour)
	v.SetDefault("stats_cache_ttl", 30*time.Second)

	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("kafka_topic", "repopa.events")

	v.SetDefault("outbox_batch_size", 100)
	v.SetDefault("outbox_poll_interval", 2*time.Second)
	v.SetDefault("cleanup_interval", time.Hour)
}

// Load reads settings. Environment variables (DATABASE_URL, APP_PORT, ...)
// win over the file. An empty file means look for repopa.yaml in the
// working directory and /etc/repopa; a missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("repopa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/repopa")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := folio.ParsePolicy(c.FolioUnknownType); err != nil {
		return fmt.Errorf("folio_unknown_type: %w", err)
	}
	if c.FolioMaxAttempts < 1 {
		return errors.New("folio_max_attempts must be at least 1")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("jwt_secret must be set in production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Development selects the console log encoder.
func (c *Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// UnknownTypePolicy returns the parsed folio policy.
func (c *Config) UnknownTypePolicy() folio.UnknownTypePolicy {
	p, _ := folio.ParsePolicy(c.FolioUnknownType)
	return p
}

// RequireDatabase fails when no DATABASE_URL was given.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}
