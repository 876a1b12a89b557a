// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultMemoryStoreSize bounds a MemoryStore created with a non-positive size.
const DefaultMemoryStoreSize = 10000

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	events []Event
	mu     sync.RWMutex
	maxLen int
	legacy bool
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = DefaultMemoryStoreSize
	}
	return &MemoryStore{
		events: make([]Event, 0, min(maxLen, 1024)),
		maxLen: maxLen,
	}
}

// NewLegacyMemoryStore creates a memory store that behaves like a table
// without the changed_fields column: full-row writes are rejected.
func NewLegacyMemoryStore(maxLen int) *MemoryStore {
	s := NewMemoryStore(maxLen)
	s.legacy = true
	return s
}

// InsertFull implements Store.
func (s *MemoryStore) InsertFull(ctx context.Context, rows []FullRow) error {
	if s.legacy {
		return &MissingColumnError{
			Table:  "memory",
			Column: ColumnChangedFields,
			Err:    errors.New("column not present"),
		}
	}

	events := make([]Event, len(rows))
	for i := range rows {
		events[i] = rows[i].Event(rows[i].ChangedFields)
	}
	s.append(events)
	return nil
}

// InsertReduced implements Store.
func (s *MemoryStore) InsertReduced(ctx context.Context, rows []Row) error {
	events := make([]Event, len(rows))
	for i := range rows {
		events[i] = rows[i].Event(nil)
	}
	s.append(events)
	return nil
}

func (s *MemoryStore) append(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
	// Enforce max length by removing oldest events
	if over := len(s.events) - s.maxLen; over > 0 {
		s.events = append(s.events[:0], s.events[over:]...)
	}
}

// Query implements Store. Events are returned most recent first.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []Event{}
	for i := len(s.events) - 1; i >= 0; i-- {
		if !filter.Matches(&s.events[i]) {
			continue
		}
		results = append(results, s.events[i])
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// Purge implements Purger.
func (s *MemoryStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for i := range s.events {
		if s.events[i].Timestamp.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, s.events[i])
	}
	s.events = kept
	return deleted, nil
}

// Len returns the number of events in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
