// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded from a
// `.env` file), maps them into structured Go types, and validates that
// required values are present so the service fails fast on bad or missing
// configuration.
//
// Env vars use the EDGEBASE_ prefix and dot-delimited nesting, e.g.
// EDGEBASE_DATABASE.DRIVER -> Config.Database.Driver.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process environment
	// before anything reads env vars.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the root configuration object for the service.
type Config struct {
	Primary  Primary        `koanf:"primary" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env      string `koanf:"env" validate:"required,oneof=local staging production"`
	LogLevel string `koanf:"log_level"`
}

// ServerConfig groups settings for the HTTP runtime that serves the health
// and metrics endpoints. Timeouts are seconds.
type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"read_timeout" validate:"required"`
	WriteTimeout int    `koanf:"write_timeout" validate:"required"`
	IdleTimeout  int    `koanf:"idle_timeout" validate:"required"`
}

// DatabaseConfig selects and tunes the store backend.
//
// Driver "edge" talks to the remote edge-hosted store over its HTTP
// protocol; "sqlite" runs against a local file (or :memory:) and exists for
// development and tests.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=edge sqlite"`

	// Edge store binding. Required when Driver is "edge".
	Endpoint   string `koanf:"endpoint" validate:"required_if=Driver edge"`
	AccountID  string `koanf:"account_id" validate:"required_if=Driver edge"`
	DatabaseID string `koanf:"database_id" validate:"required_if=Driver edge"`
	Token      string `koanf:"token" validate:"required_if=Driver edge"`

	// Path of the local sqlite database. Required when Driver is "sqlite".
	Path string `koanf:"path" validate:"required_if=Driver sqlite"`

	// Executor tuning. Zero values fall back to the defaults below.
	MaxRetries       int  `koanf:"max_retries"`
	RetryDelayMs     int  `koanf:"retry_delay_ms"`
	QueryTimeoutMs   int  `koanf:"query_timeout_ms"`
	SlowQueryMs      int  `koanf:"slow_query_ms"`
	LogQueries       bool `koanf:"log_queries"`
	StrictClassifier bool `koanf:"strict_classifier"`
}

// Executor defaults. The retry budget and backoff base mirror what the
// store's flakiness profile was measured against.
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1000 * time.Millisecond
	DefaultQueryTimeout = 30 * time.Second
	DefaultSlowQuery    = 5000 * time.Millisecond
)

// RetryDelay returns the configured backoff base, or the default.
func (d DatabaseConfig) RetryDelay() time.Duration {
	if d.RetryDelayMs <= 0 {
		return DefaultRetryDelay
	}
	return time.Duration(d.RetryDelayMs) * time.Millisecond
}

// QueryTimeout returns the per-attempt deadline, or the default.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	if d.QueryTimeoutMs <= 0 {
		return DefaultQueryTimeout
	}
	return time.Duration(d.QueryTimeoutMs) * time.Millisecond
}

// SlowQuery returns the slow-query threshold, or the default.
func (d DatabaseConfig) SlowQuery() time.Duration {
	if d.SlowQueryMs <= 0 {
		return DefaultSlowQuery
	}
	return time.Duration(d.SlowQueryMs) * time.Millisecond
}

// Retries returns the attempt budget, or the default.
func (d DatabaseConfig) Retries() int {
	if d.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return d.MaxRetries
}

// New loads configuration from EDGEBASE_-prefixed environment variables,
// unmarshals it into Config, and validates it.
func New() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider("EDGEBASE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "EDGEBASE_"))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
