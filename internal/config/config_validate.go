// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package config

import (
	"fmt"
	"slices"

	"github.com/tomtom215/innledger/internal/audit"
	"github.com/tomtom215/innledger/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	return c.validateServer()
}

// validateAudit checks cross-field audit settings
func (c *Config) validateAudit() error {
	if _, err := c.Audit.Location(); err != nil {
		return err
	}
	if c.Audit.RetentionEnabled() && c.Audit.CleanupInterval <= 0 {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be positive when AUDIT_RETENTION_DAYS is set")
	}
	return nil
}

// validateStore checks the driver-specific store settings
func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case audit.DriverBadger:
		if c.Store.LegacySchema {
			return fmt.Errorf("STORE_LEGACY_SCHEMA is not supported by the badger driver")
		}
	case audit.DriverDuckDB:
		if c.Store.LegacySchema && !c.Store.CreateSchema {
			return fmt.Errorf("STORE_LEGACY_SCHEMA requires STORE_CREATE_SCHEMA for the duckdb driver")
		}
	}
	return nil
}

// validateServer checks rate limiting and CORS settings
func (c *Config) validateServer() error {
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQUESTS is set")
	}
	return nil
}

// ShouldWarnAboutCORS reports whether CORS allows any origin.
func (c *Config) ShouldWarnAboutCORS() bool {
	return slices.Contains(c.Server.CORSOrigins, "*")
}
