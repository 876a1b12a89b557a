// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/tomtom215/innledger/internal/logging"
)

// Store drivers.
const (
	DriverDuckDB = "duckdb"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// StoreOptions selects and configures the backing store.
type StoreOptions struct {
	Driver       string
	DuckDBPath   string
	BadgerPath   string
	Table        string
	CreateSchema bool
	LegacySchema bool
	MemorySize   int

	// Breaker wraps the store in a circuit breaker when non-nil.
	Breaker *BreakerSettings
}

// OpenedStore is a store together with the resources it holds.
type OpenedStore struct {
	Store
	close func() error
}

// Close releases the store's resources.
func (o *OpenedStore) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// Purger returns the store as a Purger, if it supports retention.
func (o *OpenedStore) Purger() (Purger, bool) {
	p, ok := o.Store.(Purger)
	return p, ok
}

// OpenStore opens the store described by opts.
func OpenStore(ctx context.Context, opts StoreOptions) (*OpenedStore, error) {
	var (
		store   Store
		closeFn func() error
	)

	switch opts.Driver {
	case DriverDuckDB:
		path := opts.DuckDBPath
		if path == "" {
			path = ":memory:"
		}
		// Disable auto-install/auto-load to prevent hangs in restricted network environments
		db, err := sql.Open("duckdb", path+"?autoinstall_known_extensions=false&autoload_known_extensions=false")
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to audit database: %w", err)
		}
		ds, err := NewDuckDBStore(db, opts.Table)
		if err != nil {
			db.Close()
			return nil, err
		}
		if opts.CreateSchema {
			if err := ds.CreateTable(ctx, opts.LegacySchema); err != nil {
				db.Close()
				return nil, err
			}
		}
		store, closeFn = ds, ds.Close

	case DriverBadger:
		bs, err := OpenBadgerStore(opts.BadgerPath)
		if err != nil {
			return nil, err
		}
		store, closeFn = bs, bs.Close

	case DriverMemory:
		if opts.LegacySchema {
			store = NewLegacyMemoryStore(opts.MemorySize)
		} else {
			store = NewMemoryStore(opts.MemorySize)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}

	if opts.Breaker != nil {
		store = NewBreakerStore(store, *opts.Breaker)
	}

	logging.Info().
		Str("driver", opts.Driver).
		Bool("circuit_breaker", opts.Breaker != nil).
		Msg("Audit store opened")

	return &OpenedStore{Store: store, close: closeFn}, nil
}
