// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package config loads and validates Innledger configuration.

# Configuration Sources

Configuration is layered with koanf v2, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/innledger/
 3. Environment variables from an explicit allow-list (envMappings)

# Configuration Structure

  - AuditConfig: buffer capacity, flush interval, shutdown drain, timezone, retention
  - StoreConfig: backing store driver (duckdb, badger, memory) and its paths
  - BreakerConfig: circuit breaker around the store
  - ServerConfig: HTTP listen address, timeouts, rate limiting, CORS
  - LoggingConfig: zerolog level, format, caller
  - SupervisorConfig: suture failure thresholds and shutdown timeout

# Environment Variables

	AUDIT_BUFFER_CAPACITY=1000
	AUDIT_FLUSH_INTERVAL=30s
	AUDIT_DRAIN_TIMEOUT=5s
	AUDIT_TIMEZONE=Europe/Lisbon
	AUDIT_RETENTION_DAYS=0
	STORE_DRIVER=duckdb
	DUCKDB_PATH=/data/innledger.duckdb
	BREAKER_ENABLED=true
	HTTP_PORT=3857
	RATE_LIMIT_REQUESTS=100
	CORS_ORIGINS=https://frontdesk.example.com,https://admin.example.com
	LOG_LEVEL=info

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	opened, err := audit.OpenStore(ctx, cfg.StoreOptions())

Struct tags are checked with go-playground/validator through the validation
package; cross-field rules live in config_validate.go.
*/
package config
