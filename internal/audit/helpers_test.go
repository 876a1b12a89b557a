// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// reportLog collects reports sent by the journal.
type reportLog struct {
	mu      sync.Mutex
	reports []Report
}

func (r *reportLog) Report(_ context.Context, rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *reportLog) all() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// stubStore records every write and can be told to fail or block.
type stubStore struct {
	mu         sync.Mutex
	full       [][]FullRow
	reduced    [][]Row
	fullErr    error
	reducedErr error
	queryErr   error

	// When release is non-nil, InsertFull signals entered and waits.
	entered chan struct{}
	release chan struct{}
}

func (s *stubStore) InsertFull(ctx context.Context, rows []FullRow) error {
	if s.release != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.full = append(s.full, rows)
	return s.fullErr
}

func (s *stubStore) InsertReduced(ctx context.Context, rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reduced = append(s.reduced, rows)
	return s.reducedErr
}

func (s *stubStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return []Event{}, nil
}

func (s *stubStore) fullCalls() [][]FullRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]FullRow(nil), s.full...)
}

func (s *stubStore) reducedCalls() [][]Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Row(nil), s.reduced...)
}

var testEpoch = time.Date(2026, 5, 12, 12, 0, 0, 0, time.UTC)

// newTestJournal creates a journal with a manual clock, UTC analytics and a
// collecting reporter.
func newTestJournal(t *testing.T, store Store) (*Journal, *testClock, *reportLog) {
	t.Helper()

	clock := newTestClock(testEpoch)
	reports := &reportLog{}
	j, err := NewJournal(store, Options{
		BufferCapacity: DefaultBufferCapacity,
		FlushInterval:  time.Hour,
		DrainTimeout:   time.Second,
		Location:       time.UTC,
		Reporter:       reports,
		Now:            clock.Now,
	})
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}
	return j, clock, reports
}

// testEvent builds a stored-shape event for analytics tests.
func testEvent(userID string, action Action, entity EntityType, result Result, ts time.Time) Event {
	return Event{
		ID:         newEventID(),
		Timestamp:  ts,
		UserID:     userID,
		Action:     action,
		EntityType: entity,
		EntityID:   "e1",
		IPAddress:  UnknownClient,
		UserAgent:  UnknownClient,
		Result:     result,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
