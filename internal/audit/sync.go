// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/metrics"
)

// Flush persists every buffered event. The buffer is emptied before the
// write starts, so events recorded during the write wait for the next flush.
// On failure the batch is put back in front of the buffer, the failure is
// reported, and the error is returned. Flushing an empty buffer is a no-op.
//
// Flush calls never overlap. It is safe to call Flush directly while Run is
// active.
func (j *Journal) Flush(ctx context.Context) error {
	j.flushMu.Lock()
	defer j.flushMu.Unlock()

	batch := j.buf.drain()
	if len(batch) == 0 {
		return nil
	}
	metrics.AuditBufferEvents.Set(float64(j.buf.len()))

	start := time.Now()
	outcome, err := j.persist(ctx, batch)
	metrics.AuditFlushDuration.Observe(time.Since(start).Seconds())
	metrics.AuditFlushesTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		dropped, length := j.buf.requeue(batch)
		metrics.AuditBufferEvents.Set(float64(length))
		if dropped > 0 {
			metrics.AuditEventsEvicted.Add(float64(dropped))
		}

		j.reporter.Report(ctx, Report{
			Component: componentSync,
			Message:   "Failed to persist audit events",
			Severity:  SeverityError,
			Payload: map[string]any{
				"error":      err.Error(),
				"batch_size": len(batch),
				"requeued":   len(batch) - dropped,
				"dropped":    dropped,
			},
		})
		return fmt.Errorf("flush %d audit events: %w", len(batch), err)
	}

	metrics.AuditEventsPersisted.Add(float64(len(batch)))
	logging.Ctx(ctx).Debug().
		Str("component", componentSync).
		Int("events", len(batch)).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("Flushed audit events")
	return nil
}

const (
	flushSuccess  = "success"
	flushDegraded = "degraded"
	flushFailure  = "failure"
)

// persist writes batch in the full shape. If the store rejects only the
// changed_fields column, the batch is written once more without it.
func (j *Journal) persist(ctx context.Context, batch []Event) (string, error) {
	err := j.store.InsertFull(ctx, FullRows(batch))
	if err == nil {
		return flushSuccess, nil
	}
	if !isChangedFieldsRejection(err) {
		return flushFailure, err
	}

	metrics.AuditSchemaFallbacks.Inc()
	logging.Ctx(ctx).Warn().
		Err(err).
		Str("component", componentSync).
		Msg("Audit store lacks changed_fields, retrying without it")

	if err := j.store.InsertReduced(ctx, ReducedRows(batch)); err != nil {
		return flushFailure, err
	}
	return flushDegraded, nil
}

// Run flushes on every interval tick and whenever a critical event asks for
// it, until ctx is cancelled. Before returning it makes one last attempt to
// drain the buffer, bounded by the configured drain timeout.
//
// Run is meant to be supervised; it returns ctx.Err() on shutdown.
func (j *Journal) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	logging.Info().
		Str("component", componentSync).
		Dur("interval", j.opts.FlushInterval).
		Int("capacity", j.opts.BufferCapacity).
		Msg("Audit sync worker started")

	for {
		select {
		case <-ctx.Done():
			j.drain()
			return ctx.Err()
		case <-ticker.C:
			// Errors are already reported and the batch requeued.
			_ = j.Flush(ctx) //nolint:errcheck // reported inside Flush
		case <-j.kick:
			_ = j.Flush(ctx) //nolint:errcheck // reported inside Flush
		}
	}
}

// drain performs the final flush on shutdown with a fresh, bounded context.
func (j *Journal) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), j.opts.DrainTimeout)
	defer cancel()

	pending := j.buf.len()
	if pending == 0 {
		return
	}
	if err := j.Flush(ctx); err != nil {
		logging.Warn().
			Err(err).
			Str("component", componentSync).
			Int("pending", j.buf.len()).
			Msg("Audit events not persisted before shutdown")
		return
	}
	logging.Info().
		Str("component", componentSync).
		Int("events", pending).
		Msg("Drained audit buffer on shutdown")
}
