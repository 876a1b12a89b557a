// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/metrics"
)

// ErrPurgeUnsupported is returned when the wrapped store cannot purge.
var ErrPurgeUnsupported = errors.New("audit store does not support purge")

// BreakerSettings configures BreakerStore.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings returns the production breaker configuration.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "audit-store",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  3,
	}
}

// BreakerStore wraps a Store with a circuit breaker. While the circuit is
// open, calls fail fast: flushes requeue without waiting on a dead store and
// reads fall back to the buffer immediately.
//
// A rejection of the changed_fields column is a schema mismatch, not an
// outage, and does not count towards tripping.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[[]Event]
	name  string
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner Store, s BreakerSettings) *BreakerStore {
	if s.Name == "" {
		s.Name = DefaultBreakerSettings().Name
	}

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]Event](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || isChangedFieldsRejection(err) || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerStore{inner: inner, cb: cb, name: s.Name}
}

func (b *BreakerStore) execute(fn func() ([]Event, error)) ([]Event, error) {
	events, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	}
	return events, err
}

// InsertFull implements Store.
func (b *BreakerStore) InsertFull(ctx context.Context, rows []FullRow) error {
	_, err := b.execute(func() ([]Event, error) {
		return nil, b.inner.InsertFull(ctx, rows)
	})
	return err
}

// InsertReduced implements Store.
func (b *BreakerStore) InsertReduced(ctx context.Context, rows []Row) error {
	_, err := b.execute(func() ([]Event, error) {
		return nil, b.inner.InsertReduced(ctx, rows)
	})
	return err
}

// Query implements Store.
func (b *BreakerStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	return b.execute(func() ([]Event, error) {
		return b.inner.Query(ctx, filter)
	})
}

// Purge implements Purger when the wrapped store does.
func (b *BreakerStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	p, ok := b.inner.(Purger)
	if !ok {
		return 0, ErrPurgeUnsupported
	}
	var n int64
	_, err := b.execute(func() ([]Event, error) {
		var err error
		n, err = p.Purge(ctx, olderThan)
		return nil, err
	})
	return n, err
}

// State returns the current breaker state name.
func (b *BreakerStore) State() string {
	return stateToString(b.cb.State())
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
