// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func recordRooms(j *Journal, ids ...string) {
	for _, id := range ids {
		j.Record(context.Background(), Entry{Action: ActionUpdate, EntityType: EntityRoom, EntityID: id})
	}
}

func TestFlush_EmptyBufferIsNoop(t *testing.T) {
	store := &stubStore{}
	j, _, reports := newTestJournal(t, store)

	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if len(store.fullCalls()) != 0 {
		t.Error("expected no store writes")
	}
	if len(reports.all()) != 0 {
		t.Error("expected no reports")
	}
}

func TestFlush_PersistsInOrderAndClears(t *testing.T) {
	store := &stubStore{}
	j, _, _ := newTestJournal(t, store)

	recordRooms(j, "101", "102", "103")
	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	calls := store.fullCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 batch write, got %d", len(calls))
	}
	for i, want := range []string{"101", "102", "103"} {
		if got := calls[0][i].EntityID; got != want {
			t.Errorf("row %d: expected %s, got %s", i, want, got)
		}
	}
	if n := len(j.Buffered()); n != 0 {
		t.Errorf("expected empty buffer, got %d", n)
	}
	if len(store.reducedCalls()) != 0 {
		t.Error("expected no reduced writes")
	}
}

func TestFlush_MemoryStore(t *testing.T) {
	store := NewMemoryStore(100)
	j, _, _ := newTestJournal(t, store)

	j.RecordReservationUpdated(context.Background(), "r1",
		map[string]any{"status": "pending"},
		map[string]any{"status": "confirmed"})
	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	events, _ := store.Query(context.Background(), Filter{})
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	if got := events[0].ChangedFields; len(got) != 1 || got[0] != "status" {
		t.Errorf("expected changed fields to be stored, got %v", got)
	}
}

func TestFlush_FailureRequeuesAndReports(t *testing.T) {
	storeErr := errors.New("connection refused")
	store := &stubStore{fullErr: storeErr}
	j, _, reports := newTestJournal(t, store)
	ctx := context.Background()

	recordRooms(j, "101", "102")
	err := j.Flush(ctx)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	buffered := entityIDs(j.Buffered())
	if len(buffered) != 2 || buffered[0] != "101" || buffered[1] != "102" {
		t.Errorf("expected batch requeued in order, got %v", buffered)
	}

	got := reports.all()
	if len(got) != 1 {
		t.Fatalf("expected 1 report, got %d", len(got))
	}
	if got[0].Component != componentSync || got[0].Severity != SeverityError {
		t.Errorf("unexpected report %+v", got[0])
	}
	if got[0].Payload["batch_size"] != 2 {
		t.Errorf("expected batch_size 2, got %v", got[0].Payload["batch_size"])
	}

	// Events recorded after the failure follow the requeued batch.
	recordRooms(j, "103")
	store.mu.Lock()
	store.fullErr = nil
	store.mu.Unlock()
	if err := j.Flush(ctx); err != nil {
		t.Fatalf("second Flush failed: %v", err)
	}
	calls := store.fullCalls()
	last := calls[len(calls)-1]
	if len(last) != 3 || last[0].EntityID != "101" || last[2].EntityID != "103" {
		t.Errorf("expected retried batch 101,102,103, got %d rows", len(last))
	}
	if n := len(j.Buffered()); n != 0 {
		t.Errorf("expected empty buffer, got %d", n)
	}
}

func TestFlush_RequeueRespectsCapacity(t *testing.T) {
	store := &stubStore{fullErr: errors.New("disk full")}
	j, err := NewJournal(store, Options{BufferCapacity: 3, Reporter: &reportLog{}})
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}

	recordRooms(j, "1", "2", "3")
	_ = j.Flush(context.Background())

	if n := len(j.Buffered()); n != 3 {
		t.Errorf("expected 3 buffered events, got %d", n)
	}
}

func TestFlush_ChangedFieldsFallback(t *testing.T) {
	store := NewLegacyMemoryStore(100)
	j, _, reports := newTestJournal(t, store)
	ctx := context.Background()

	j.RecordReservationUpdated(ctx, "r1",
		map[string]any{"status": "pending"},
		map[string]any{"status": "confirmed"})
	if err := j.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	events, _ := store.Query(ctx, Filter{})
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	if events[0].ChangedFields != nil {
		t.Errorf("expected reduced row without changed fields, got %v", events[0].ChangedFields)
	}
	if events[0].NewValues["status"] != "confirmed" {
		t.Errorf("expected snapshots to survive the reduced write, got %v", events[0].NewValues)
	}
	if len(reports.all()) != 0 {
		t.Error("schema fallback must not be reported as a failure")
	}
}

func TestFlush_ChangedFieldsFallbackByMessage(t *testing.T) {
	store := &stubStore{fullErr: fmt.Errorf(`Binder Error: Table "audit_events" does not have a column with name "changed_fields"`)}
	j, _, _ := newTestJournal(t, store)

	recordRooms(j, "101", "102")
	if err := j.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if n := len(store.fullCalls()); n != 1 {
		t.Errorf("expected 1 full write, got %d", n)
	}
	reduced := store.reducedCalls()
	if len(reduced) != 1 || len(reduced[0]) != 2 {
		t.Fatalf("expected one reduced write of 2 rows, got %v", reduced)
	}
	if reduced[0][0].EntityID != "101" {
		t.Errorf("expected order preserved, got %s first", reduced[0][0].EntityID)
	}
}

func TestFlush_FallbackFailureRequeues(t *testing.T) {
	store := &stubStore{
		fullErr:    &MissingColumnError{Table: "audit_events", Column: ColumnChangedFields, Err: errors.New("missing")},
		reducedErr: errors.New("connection reset"),
	}
	j, _, reports := newTestJournal(t, store)

	recordRooms(j, "101")
	if err := j.Flush(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if n := len(store.reducedCalls()); n != 1 {
		t.Errorf("expected exactly one reduced retry, got %d", n)
	}
	if n := len(j.Buffered()); n != 1 {
		t.Errorf("expected batch requeued, got %d", n)
	}
	if n := len(reports.all()); n != 1 {
		t.Errorf("expected 1 report, got %d", n)
	}
}

func TestFlush_OtherErrorsDoNotFallBack(t *testing.T) {
	store := &stubStore{fullErr: errors.New("constraint violation on id")}
	j, _, _ := newTestJournal(t, store)

	recordRooms(j, "101")
	_ = j.Flush(context.Background())

	if n := len(store.reducedCalls()); n != 0 {
		t.Errorf("expected no reduced write, got %d", n)
	}
}

func TestFlush_RecordDuringWriteGoesToNextBatch(t *testing.T) {
	store := &stubStore{entered: make(chan struct{}), release: make(chan struct{})}
	j, _, _ := newTestJournal(t, store)
	ctx := context.Background()

	recordRooms(j, "101", "102")

	done := make(chan error, 1)
	go func() { done <- j.Flush(ctx) }()

	<-store.entered
	recordRooms(j, "103")
	if ids := entityIDs(j.Buffered()); len(ids) != 1 || ids[0] != "103" {
		t.Errorf("expected only the new event buffered during the write, got %v", ids)
	}
	close(store.release)

	if err := <-done; err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	calls := store.fullCalls()
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("expected first batch of 2 rows, got %v", calls)
	}
	if n := len(j.Buffered()); n != 1 {
		t.Errorf("expected 1 event awaiting the next flush, got %d", n)
	}
}

func TestFlush_NeverOverlaps(t *testing.T) {
	store := &stubStore{entered: make(chan struct{}, 2), release: make(chan struct{})}
	j, _, _ := newTestJournal(t, store)
	ctx := context.Background()

	recordRooms(j, "101")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = j.Flush(ctx)
	}()
	<-store.entered

	recordRooms(j, "102")
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = j.Flush(ctx)
	}()

	select {
	case <-store.entered:
		t.Fatal("second flush started writing while the first was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	wg.Wait()

	calls := store.fullCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 sequential writes, got %d", len(calls))
	}
	if calls[0][0].EntityID != "101" || calls[1][0].EntityID != "102" {
		t.Error("expected batches written in order")
	}
}

func TestRun_DrainsOnShutdown(t *testing.T) {
	store := NewMemoryStore(100)
	j, _, _ := newTestJournal(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	recordRooms(j, "101", "102")
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := store.Len(); n != 2 {
		t.Errorf("expected 2 events drained on shutdown, got %d", n)
	}
	if n := len(j.Buffered()); n != 0 {
		t.Errorf("expected empty buffer, got %d", n)
	}
}

func TestRun_FlushesOnInterval(t *testing.T) {
	store := NewMemoryStore(100)
	j, err := NewJournal(store, Options{FlushInterval: 10 * time.Millisecond, Reporter: &reportLog{}})
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = j.Run(ctx) }()

	recordRooms(j, "101")
	waitFor(t, "periodic flush", func() bool { return store.Len() == 1 })
}

func TestRun_CriticalEventFlushesImmediately(t *testing.T) {
	store := NewMemoryStore(100)
	j, _, _ := newTestJournal(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = j.Run(ctx) }()

	j.RecordSettingsChanged(context.Background(), "checkout_time", "11:00", "12:00")
	waitFor(t, "critical flush", func() bool { return store.Len() == 1 })
}

func TestRun_FailedDrainLeavesEventsBuffered(t *testing.T) {
	store := &stubStore{fullErr: errors.New("store offline")}
	j, _, reports := newTestJournal(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	recordRooms(j, "101")
	cancel()
	<-done

	if n := len(j.Buffered()); n != 1 {
		t.Errorf("expected event to remain buffered, got %d", n)
	}
	if n := len(reports.all()); n != 1 {
		t.Errorf("expected the failed drain to be reported, got %d", n)
	}
}

func TestFlush_FailedWriteKeepsEventsRecordedDuringWrite(t *testing.T) {
	store := &stubStore{
		fullErr: errors.New("connection refused"),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	j, _, _ := newTestJournal(t, store)
	ctx := context.Background()

	recordRooms(j, "101", "102")

	done := make(chan error, 1)
	go func() { done <- j.Flush(ctx) }()

	<-store.entered
	recordRooms(j, "103")
	close(store.release)

	if err := <-done; err == nil {
		t.Fatal("expected error")
	}
	ids := entityIDs(j.Buffered())
	if len(ids) != 3 || ids[0] != "101" || ids[1] != "102" || ids[2] != "103" {
		t.Errorf("expected [101 102 103], got %v", ids)
	}
}

func TestRecord_BufferKeepsLatestEvents(t *testing.T) {
	j, _, _ := newTestJournal(t, &stubStore{})

	total := DefaultBufferCapacity + 25
	for i := 0; i < total; i++ {
		recordRooms(j, fmt.Sprint(i))
	}

	ids := entityIDs(j.Buffered())
	if len(ids) != DefaultBufferCapacity {
		t.Fatalf("expected %d buffered events, got %d", DefaultBufferCapacity, len(ids))
	}
	if ids[0] != "25" || ids[len(ids)-1] != fmt.Sprint(total-1) {
		t.Errorf("expected events 25..%d, got %s..%s", total-1, ids[0], ids[len(ids)-1])
	}
}
