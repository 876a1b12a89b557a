// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupDuckDBStore(t *testing.T, legacy bool) *DuckDBStore {
	t.Helper()

	store, err := NewDuckDBStore(setupTestDB(t), "")
	if err != nil {
		t.Fatalf("NewDuckDBStore failed: %v", err)
	}
	if err := store.CreateTable(context.Background(), legacy); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return store
}

func TestDuckDBStore_CreateTable(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewDuckDBStore(db, "")
	if err != nil {
		t.Fatalf("NewDuckDBStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.CreateTable(ctx, false); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	// Idempotent
	if err := store.CreateTable(ctx, false); err != nil {
		t.Fatalf("second CreateTable failed: %v", err)
	}

	var tableName string
	err = db.QueryRowContext(ctx, "SELECT table_name FROM information_schema.tables WHERE table_name = 'audit_events'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Table audit_events does not exist: %v", err)
	}
}

func TestNewDuckDBStore_InvalidTable(t *testing.T) {
	if _, err := NewDuckDBStore(setupTestDB(t), "audit; DROP TABLE x"); err == nil {
		t.Error("expected invalid table name to be rejected")
	}
}

func TestDuckDBStore_InsertFullAndQuery(t *testing.T) {
	store := setupDuckDBStore(t, false)
	ctx := context.Background()

	e := testEvent("u1", ActionUpdate, EntityReservation, ResultFailure, testEpoch)
	e.SessionID = "s1"
	e.EntityID = "r42"
	e.OldValues = map[string]any{"status": "pending"}
	e.NewValues = map[string]any{"status": "confirmed"}
	e.ChangedFields = []string{"status"}
	e.ErrorMessage = "room unavailable"
	e.Metadata = map[string]any{"channel": "phone"}
	e.CorrelationID = "corr-1"

	if err := store.InsertFull(ctx, FullRows([]Event{e})); err != nil {
		t.Fatalf("InsertFull failed: %v", err)
	}

	events, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID != e.ID || !got.Timestamp.Equal(e.Timestamp) {
		t.Errorf("identity mismatch: %s %v", got.ID, got.Timestamp)
	}
	if got.UserID != "u1" || got.SessionID != "s1" || got.EntityID != "r42" {
		t.Errorf("unexpected columns %+v", got)
	}
	if got.NewValues["status"] != "confirmed" || got.Metadata["channel"] != "phone" {
		t.Errorf("unexpected snapshots %v %v", got.NewValues, got.Metadata)
	}
	if len(got.ChangedFields) != 1 || got.ChangedFields[0] != "status" {
		t.Errorf("expected changed fields [status], got %v", got.ChangedFields)
	}
	if got.ErrorMessage != "room unavailable" || got.CorrelationID != "corr-1" {
		t.Errorf("unexpected error/correlation %q %q", got.ErrorMessage, got.CorrelationID)
	}
}

func TestDuckDBStore_QueryFilters(t *testing.T) {
	store := setupDuckDBStore(t, false)
	ctx := context.Background()

	if err := store.InsertFull(ctx, FullRows([]Event{
		testEvent("u1", ActionCreate, EntityReservation, ResultSuccess, testEpoch),
		testEvent("u2", ActionView, EntityGuest, ResultSuccess, testEpoch.Add(time.Minute)),
		testEvent("u1", ActionPaymentProcessed, EntityPayment, ResultFailure, testEpoch.Add(2*time.Minute)),
	})); err != nil {
		t.Fatalf("InsertFull failed: %v", err)
	}

	start := testEpoch.Add(time.Minute)
	end := testEpoch.Add(2 * time.Minute)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"by user", Filter{UserID: "u1"}, 2},
		{"by entity type", Filter{EntityType: EntityGuest}, 1},
		{"by action", Filter{Action: ActionCreate}, 1},
		{"by result", Filter{Result: ResultFailure}, 1},
		{"time range inclusive", Filter{StartTime: &start, EndTime: &end}, 2},
		{"limit", Filter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("expected %d events, got %d", tt.want, len(events))
			}
		})
	}

	events, _ := store.Query(ctx, Filter{Limit: 1})
	if events[0].Action != ActionPaymentProcessed {
		t.Errorf("expected newest first, got %s", events[0].Action)
	}
}

func TestDuckDBStore_LegacyTable(t *testing.T) {
	store := setupDuckDBStore(t, true)
	ctx := context.Background()
	events := []Event{testEvent("u1", ActionView, EntityRoom, ResultSuccess, testEpoch)}

	err := store.InsertFull(ctx, FullRows(events))
	var mce *MissingColumnError
	if !errors.As(err, &mce) || mce.Column != ColumnChangedFields {
		t.Fatalf("expected MissingColumnError for changed_fields, got %v", err)
	}

	// The failed transaction must leave nothing behind.
	if got, _ := store.Query(ctx, Filter{}); len(got) != 0 {
		t.Fatalf("expected no rows after rejected write, got %d", len(got))
	}

	if err := store.InsertReduced(ctx, ReducedRows(events)); err != nil {
		t.Fatalf("InsertReduced failed: %v", err)
	}
	got, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query on legacy table failed: %v", err)
	}
	if len(got) != 1 || got[0].ChangedFields != nil {
		t.Errorf("expected 1 event without changed fields, got %+v", got)
	}
}

func TestDuckDBStore_JournalSchemaFallback(t *testing.T) {
	store := setupDuckDBStore(t, true)
	j, _, reports := newTestJournal(t, store)
	ctx := context.Background()

	j.RecordReservationUpdated(ctx, "r1", map[string]any{"nights": 1}, map[string]any{"nights": 3})
	if err := j.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	trail := j.Trail(ctx, Filter{EntityID: "r1"})
	if len(trail) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(trail))
	}
	if len(reports.all()) != 0 {
		t.Error("expected no failure reports")
	}
}

func TestDuckDBStore_Purge(t *testing.T) {
	store := setupDuckDBStore(t, false)
	ctx := context.Background()

	if err := store.InsertFull(ctx, FullRows([]Event{
		testEvent("u1", ActionView, EntityRoom, ResultSuccess, testEpoch.Add(-48*time.Hour)),
		testEvent("u1", ActionView, EntityRoom, ResultSuccess, testEpoch),
	})); err != nil {
		t.Fatalf("InsertFull failed: %v", err)
	}

	deleted, err := store.Purge(ctx, testEpoch.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}

func TestOpenStore_DuckDB(t *testing.T) {
	opened, err := OpenStore(context.Background(), StoreOptions{Driver: DriverDuckDB, CreateSchema: true})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer opened.Close()

	if _, ok := opened.Store.(*DuckDBStore); !ok {
		t.Errorf("expected *DuckDBStore, got %T", opened.Store)
	}
}

func TestDuckDBStore_FlushesEventWithInvalidUTF8(t *testing.T) {
	store := setupDuckDBStore(t, false)
	j, _, reports := newTestJournal(t, store)
	ctx := ContextWithClient(context.Background(), Client{IPAddress: "192.0.2.1", UserAgent: "Mozilla\xff\xfe"})

	j.Record(ctx, Entry{
		Action:     ActionUpdate,
		EntityType: EntityGuest,
		EntityID:   "g1",
		OldValues:  map[string]any{"note": "ok"},
		NewValues:  map[string]any{"note": "v\xfe"},
		Metadata:   map[string]any{"k": "\xff"},
	})
	j.RecordInvoiceGenerated(context.Background(), "i1", map[string]any{"total": 300})

	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if n := len(j.Buffered()); n != 0 {
		t.Errorf("expected empty buffer, got %d", n)
	}
	if n := len(reports.all()); n != 0 {
		t.Errorf("expected no failure reports, got %d", n)
	}

	events, err := store.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 persisted events, got %d", len(events))
	}
	for _, e := range events {
		if e.EntityID == "g1" && e.UserAgent != "Mozilla\uFFFD" {
			t.Errorf("UserAgent = %q", e.UserAgent)
		}
	}
}
