// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/innledger/internal/audit"
)

// Config holds all application configuration
type Config struct {
	Audit      AuditConfig      `koanf:"audit"`
	Store      StoreConfig      `koanf:"store"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// AuditConfig holds journal buffering and retention settings.
type AuditConfig struct {
	// BufferCapacity is the maximum number of unflushed events held in memory.
	// The oldest are evicted first once it is reached.
	BufferCapacity int `koanf:"buffer_capacity" validate:"gte=1,lte=1000000"`

	FlushInterval time.Duration `koanf:"flush_interval" validate:"gte=100ms"`

	// DrainTimeout bounds the final flush performed on shutdown.
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gte=0s"`

	// Timezone is the IANA zone used for after-hours detection. Empty means
	// the process local zone.
	Timezone string `koanf:"timezone"`

	// RetentionDays enables the retention worker when greater than zero.
	RetentionDays   int           `koanf:"retention_days" validate:"gte=0"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gte=0s"`
}

// StoreConfig selects the backing store for persisted events.
type StoreConfig struct {
	Driver     string `koanf:"driver" validate:"required,oneof=duckdb badger memory"`
	DuckDBPath string `koanf:"duckdb_path"`
	BadgerPath string `koanf:"badger_path"`
	Table      string `koanf:"table"`

	// CreateSchema creates the DuckDB table and indexes at startup.
	CreateSchema bool `koanf:"create_schema"`

	// LegacySchema creates or emulates a table without the changed_fields
	// column. Used to exercise the reduced-row fallback.
	LegacySchema bool `koanf:"legacy_schema"`

	MemorySize int `koanf:"memory_size" validate:"gte=0"`
}

// BreakerConfig holds circuit breaker settings for the store.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0s"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0s"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
	MinRequests  uint32        `koanf:"min_requests" validate:"gte=1"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0s"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gte=0s"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
//
// Environment variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture supervisor tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gte=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gte=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gte=0s"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gte=0s"`
}

// Location resolves the configured timezone.
func (c *AuditConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid audit timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RetentionEnabled reports whether old events should be purged.
func (c *AuditConfig) RetentionEnabled() bool {
	return c.RetentionDays > 0
}

// Retention returns the retention period as a duration.
func (c *AuditConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// JournalOptions converts the audit section to journal options. The reporter
// is left for the caller to set.
func (c *Config) JournalOptions() (audit.Options, error) {
	loc, err := c.Audit.Location()
	if err != nil {
		return audit.Options{}, err
	}
	opts := audit.DefaultOptions()
	opts.BufferCapacity = c.Audit.BufferCapacity
	opts.FlushInterval = c.Audit.FlushInterval
	opts.DrainTimeout = c.Audit.DrainTimeout
	opts.Location = loc
	return opts, nil
}

// StoreOptions converts the store and breaker sections to store options.
func (c *Config) StoreOptions() audit.StoreOptions {
	opts := audit.StoreOptions{
		Driver:       c.Store.Driver,
		DuckDBPath:   c.Store.DuckDBPath,
		BadgerPath:   c.Store.BadgerPath,
		Table:        c.Store.Table,
		CreateSchema: c.Store.CreateSchema,
		LegacySchema: c.Store.LegacySchema,
		MemorySize:   c.Store.MemorySize,
	}
	if c.Breaker.Enabled {
		s := c.BreakerSettings()
		opts.Breaker = &s
	}
	return opts
}

// BreakerSettings converts the breaker section.
func (c *Config) BreakerSettings() audit.BreakerSettings {
	s := audit.DefaultBreakerSettings()
	s.MaxRequests = c.Breaker.MaxRequests
	s.Interval = c.Breaker.Interval
	s.Timeout = c.Breaker.Timeout
	s.FailureRatio = c.Breaker.FailureRatio
	s.MinRequests = c.Breaker.MinRequests
	return s
}

// Addr returns the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
