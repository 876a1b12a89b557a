// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

// Package audit provides the front-desk audit trail journal.
//
// Every sensitive state change in the hotel operations application
// (reservations, payments, invoices, fiscal submissions, settings, imports
// and exports, logins) is recorded as an immutable Event.
//
// # Architecture
//
// The journal has a write path and a read path:
//
//	caller -> Journal.Record -> buffer -> Journal.Flush -> Store
//	caller -> Journal.Trail  -> Store (or buffer on failure) -> caller
//
// Record only touches memory and never fails. Events wait in a bounded
// buffer (1000 by default; the oldest are evicted first) until the sync
// worker flushes them, every 30 seconds or immediately after a critical
// operation (see IsCritical).
//
// # Flushing
//
// Flush snapshots and clears the buffer under a mutex, so events recorded
// during a write land in the next batch. The batch is written with the full
// row encoding (FullRow). If the store rejects only the optional
// changed_fields column, the same batch is written once more with the
// reduced encoding (Row). Any other failure puts the batch back in front of
// the buffer and is sent to the Reporter.
//
// # Analytics
//
// Trail, Statistics, ComplianceReport and DetectSuspiciousActivity read from
// the store. When the store cannot be read they apply the same Filter to the
// buffer instead and return a degraded result. Detection thresholds are the
// exported constants FailureThreshold, DeleteBurstThreshold,
// BulkGuestViewThreshold and AfterHoursThreshold; a rule fires only when a
// count strictly exceeds its threshold.
//
// # Stores
//
//   - DuckDBStore: SQL table, one transaction per batch
//   - BadgerStore: embedded key-value store, time-ordered keys
//   - MemoryStore: development and tests
//   - BreakerStore: circuit breaker around any of the above
//
// # Usage
//
//	opened, err := audit.OpenStore(ctx, audit.StoreOptions{Driver: audit.DriverDuckDB, DuckDBPath: "audit.duckdb", CreateSchema: true})
//	journal, err := audit.NewJournal(opened, audit.DefaultOptions())
//	go journal.Run(ctx)
//
//	journal.SetCurrentUser(ctx, "u1", "s1")
//	journal.RecordReservationCreated(ctx, "r42", map[string]any{"status": "confirmed"})
//
// Exactly one Journal should exist per process.
package audit
