// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/innledger/internal/logging"
)

func TestNewJournal_NilStore(t *testing.T) {
	if _, err := NewJournal(nil, DefaultOptions()); !errors.Is(err, ErrNilStore) {
		t.Errorf("expected ErrNilStore, got %v", err)
	}
}

func TestNewJournal_Defaults(t *testing.T) {
	j, err := NewJournal(NewMemoryStore(10), Options{})
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}

	if j.opts.BufferCapacity != DefaultBufferCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultBufferCapacity, j.opts.BufferCapacity)
	}
	if j.opts.FlushInterval != DefaultFlushInterval {
		t.Errorf("expected flush interval %v, got %v", DefaultFlushInterval, j.opts.FlushInterval)
	}
	if j.opts.DrainTimeout != DefaultDrainTimeout {
		t.Errorf("expected drain timeout %v, got %v", DefaultDrainTimeout, j.opts.DrainTimeout)
	}
	if j.opts.Location == nil || j.opts.Reporter == nil || j.opts.Now == nil {
		t.Error("expected location, reporter and clock defaults")
	}
}

func TestRecord_FillsEvent(t *testing.T) {
	j, clock, _ := newTestJournal(t, NewMemoryStore(10))
	ctx := context.Background()

	j.SetCurrentUser(ctx, "u1", "s1")
	clock.Advance(time.Minute)

	ctx = ContextWithClient(ctx, Client{IPAddress: "192.0.2.10", UserAgent: "FrontDesk/2.1"})
	ctx = logging.ContextWithCorrelationID(ctx, "corr-123")

	j.Record(ctx, Entry{
		Action:     ActionUpdate,
		EntityType: EntityReservation,
		EntityID:   "r42",
		OldValues:  map[string]any{"status": "pending", "nights": 2},
		NewValues:  map[string]any{"status": "confirmed", "nights": 2},
		Metadata:   map[string]any{"channel": "phone"},
	})

	buffered := j.Buffered()
	if len(buffered) != 2 {
		t.Fatalf("expected login and update events, got %d", len(buffered))
	}
	e := buffered[1]

	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if e.ID == buffered[0].ID {
		t.Error("expected unique IDs")
	}
	if want := testEpoch.Add(time.Minute); !e.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, e.Timestamp)
	}
	if e.UserID != "u1" || e.SessionID != "s1" {
		t.Errorf("expected actor u1/s1, got %s/%s", e.UserID, e.SessionID)
	}
	if e.IPAddress != "192.0.2.10" || e.UserAgent != "FrontDesk/2.1" {
		t.Errorf("unexpected client %s / %s", e.IPAddress, e.UserAgent)
	}
	if e.CorrelationID != "corr-123" {
		t.Errorf("expected correlation ID corr-123, got %s", e.CorrelationID)
	}
	if e.Result != ResultSuccess {
		t.Errorf("expected default result success, got %s", e.Result)
	}
	if !reflect.DeepEqual(e.ChangedFields, []string{"status"}) {
		t.Errorf("expected changed fields [status], got %v", e.ChangedFields)
	}
	if e.Metadata["channel"] != "phone" {
		t.Errorf("expected metadata to be kept, got %v", e.Metadata)
	}
}

func TestRecord_UnknownClientAndGeneratedCorrelation(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))

	j.Record(context.Background(), Entry{Action: ActionView, EntityType: EntityGuest, EntityID: "g1"})

	e := j.Buffered()[0]
	if e.IPAddress != UnknownClient || e.UserAgent != UnknownClient {
		t.Errorf("expected unknown client, got %s / %s", e.IPAddress, e.UserAgent)
	}
	if e.CorrelationID == "" {
		t.Error("expected a generated correlation ID")
	}
	if e.UserID != "" || e.SessionID != "" {
		t.Errorf("expected no actor, got %s/%s", e.UserID, e.SessionID)
	}
}

func TestRecord_NilContext(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))

	//nolint:staticcheck // nil context is tolerated
	j.Record(nil, Entry{Action: ActionView, EntityType: EntityRoom, EntityID: "101"})

	if len(j.Buffered()) != 1 {
		t.Error("expected event to be recorded")
	}
}

func TestRecord_ErrorMessageOnlyOnFailure(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))
	ctx := context.Background()

	j.Record(ctx, Entry{Action: ActionUpdate, EntityType: EntityRoom, EntityID: "101", ErrorMessage: "ignored"})
	j.Record(ctx, Entry{Action: ActionUpdate, EntityType: EntityRoom, EntityID: "102", Result: ResultFailure, ErrorMessage: "room locked"})

	buffered := j.Buffered()
	if buffered[0].ErrorMessage != "" {
		t.Errorf("expected no error message on success, got %q", buffered[0].ErrorMessage)
	}
	if buffered[1].ErrorMessage != "room locked" {
		t.Errorf("expected error message on failure, got %q", buffered[1].ErrorMessage)
	}
}

func TestRecord_CopiesSnapshots(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))

	values := map[string]any{"rate": 120}
	j.Record(context.Background(), Entry{
		Action:     ActionCreate,
		EntityType: EntityPricingTier,
		EntityID:   "t1",
		NewValues:  values,
	})
	values["rate"] = 999

	if got := j.Buffered()[0].NewValues["rate"]; got != 120 {
		t.Errorf("expected recorded snapshot to be unaffected, got %v", got)
	}
}

func TestSetCurrentUser_RecordsLogin(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))

	j.SetCurrentUser(context.Background(), "u1", "s1")

	if actor := j.CurrentUser(); actor.UserID != "u1" || actor.SessionID != "s1" {
		t.Errorf("unexpected current user %+v", actor)
	}
	events := j.Buffered()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Action != ActionLogin || e.EntityType != EntityUser || e.EntityID != "u1" || e.UserID != "u1" {
		t.Errorf("unexpected login event %+v", e)
	}
}

func TestClearCurrentUser_RecordsLogoutThenClears(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))
	ctx := context.Background()

	j.SetCurrentUser(ctx, "u1", "s1")
	j.ClearCurrentUser(ctx)

	events := j.Buffered()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	logout := events[1]
	if logout.Action != ActionLogout || logout.UserID != "u1" || logout.SessionID != "s1" {
		t.Errorf("expected logout attributed to u1/s1, got %+v", logout)
	}
	if actor := j.CurrentUser(); actor.UserID != "" || actor.SessionID != "" {
		t.Errorf("expected cleared actor, got %+v", actor)
	}

	j.Record(ctx, Entry{Action: ActionView, EntityType: EntityRoom, EntityID: "101"})
	if e := j.Buffered()[2]; e.UserID != "" {
		t.Errorf("expected anonymous event after logout, got %s", e.UserID)
	}
}

func TestClearCurrentUser_NoActor(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))

	j.ClearCurrentUser(context.Background())

	if n := len(j.Buffered()); n != 0 {
		t.Errorf("expected no events, got %d", n)
	}
}

func TestRecord_CriticalRequestsFlush(t *testing.T) {
	j, _, _ := newTestJournal(t, NewMemoryStore(10))
	ctx := context.Background()

	j.Record(ctx, Entry{Action: ActionView, EntityType: EntityGuest, EntityID: "g1"})
	if len(j.kick) != 0 {
		t.Fatal("non-critical event must not request a flush")
	}

	j.RecordPaymentProcessed(ctx, "p1", map[string]any{"amount": 100}, nil)
	j.RecordPaymentProcessed(ctx, "p2", map[string]any{"amount": 200}, nil)
	if len(j.kick) != 1 {
		t.Errorf("expected one coalesced flush request, got %d", len(j.kick))
	}
}

func TestRecord_Concurrent(t *testing.T) {
	store := NewMemoryStore(10)
	j, err := NewJournal(store, Options{BufferCapacity: 2000, Reporter: &reportLog{}})
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 50; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				j.Record(context.Background(), Entry{Action: ActionView, EntityType: EntityRoom, EntityID: "101"})
			}
		}()
	}
	wg.Wait()

	if n := len(j.Buffered()); n != 1000 {
		t.Errorf("expected 1000 buffered events, got %d", n)
	}
}

func TestClientFromContext(t *testing.T) {
	c := ClientFromContext(context.Background())
	if c.IPAddress != UnknownClient || c.UserAgent != UnknownClient {
		t.Errorf("expected unknown client, got %+v", c)
	}

	ctx := ContextWithClient(context.Background(), Client{IPAddress: "198.51.100.4"})
	c = ClientFromContext(ctx)
	if c.IPAddress != "198.51.100.4" || c.UserAgent != UnknownClient {
		t.Errorf("unexpected client %+v", c)
	}
}
