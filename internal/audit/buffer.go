// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import "sync"

// DefaultBufferCapacity bounds the number of events awaiting persistence.
const DefaultBufferCapacity = 1000

// buffer is the bounded, insertion-ordered queue of unflushed events.
// When full, the oldest events are evicted first.
type buffer struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

func newBuffer(capacity int) *buffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &buffer{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
	}
}

// push appends e, evicting from the front if the buffer is full.
// It returns the number of evicted events and the new length.
func (b *buffer) push(e Event) (evicted, length int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) >= b.capacity {
		evicted = len(b.events) - b.capacity + 1
		b.events = append(b.events[:0], b.events[evicted:]...)
	}
	b.events = append(b.events, e)
	return evicted, len(b.events)
}

// drain hands over the current contents and leaves a fresh, empty buffer in
// their place. Events pushed afterwards never reach the returned slice.
func (b *buffer) drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}
	batch := b.events
	b.events = make([]Event, 0, b.capacity)
	return batch
}

// requeue puts an unpersisted batch back in front of anything recorded since
// it was drained. If the result exceeds capacity the oldest events are
// dropped. It returns the number dropped and the new length.
func (b *buffer) requeue(batch []Event) (dropped, length int) {
	if len(batch) == 0 {
		return 0, b.len()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	merged := make([]Event, 0, len(batch)+len(b.events))
	merged = append(merged, batch...)
	merged = append(merged, b.events...)
	if len(merged) > b.capacity {
		dropped = len(merged) - b.capacity
		merged = merged[dropped:]
	}
	b.events = merged
	return dropped, len(b.events)
}

// snapshot returns a copy of the buffered events in insertion order.
func (b *buffer) snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *buffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
