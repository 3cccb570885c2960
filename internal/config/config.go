// Spicelog - Centralized Log Ingestion and Query Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spicelog

// Package config holds the server configuration and its Koanf v2 loader.
//
// Configuration is layered (highest priority wins):
//   - Environment variables (SPICELOG_SERVER_PORT, SPICELOG_DATABASE_PATH, ...)
//   - YAML config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/spicelog/internal/validation"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Retention RetentionConfig `koanf:"retention"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`

	// ReadTimeout and WriteTimeout bound request handling; no request
	// in this service should run longer.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists the allowed CORS origins for the dashboard.
	CORSOrigins []string `koanf:"cors_origins"`

	// IPRateLimitRequests/Window configure the router-level per-IP
	// limiter. This is separate from the per-service ingestion limiter.
	IPRateLimitRequests int           `koanf:"ip_rate_limit_requests"`
	IPRateLimitWindow   time.Duration `koanf:"ip_rate_limit_window"`
	IPRateLimitDisabled bool          `koanf:"ip_rate_limit_disabled"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path, or ":memory:" for an in-memory
	// store (tests).
	Path string `koanf:"path" validate:"required"`

	// MaxMemory caps DuckDB memory usage, e.g. "512MB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds individual store operations when the caller
	// supplies no deadline of its own.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// RateLimitConfig holds the per-service ingestion admission settings.
type RateLimitConfig struct {
	// Requests is the admission capacity per window per service.
	Requests int `koanf:"requests" validate:"gte=1"`

	// Window is the fixed window length.
	Window time.Duration `koanf:"window" validate:"gt=0"`

	// SweepInterval is how often expired windows are swept from memory.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	Disabled bool `koanf:"disabled"`
}

// RetentionConfig holds the automatic expiry policy.
type RetentionConfig struct {
	// Days is the retention horizon; entries older than this are removed
	// by the background sweep regardless of explicit purge calls.
	Days int `koanf:"days" validate:"gte=1"`

	// SweepInterval is how often the retention sweep runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	Disabled bool `koanf:"disabled"`
}

// LoggingConfig holds server-side logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
