// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/metrics"
)

// Purger is satisfied by audit stores that support retention.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

// RetentionService deletes persisted audit events older than the retention
// period, once at start and then every interval.
//
// A failed purge is logged and counted; the service keeps running and tries
// again on the next tick.
type RetentionService struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewRetentionService creates a retention worker.
func NewRetentionService(purger Purger, retention, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionService{
		purger:    purger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve implements suture.Service.
func (s *RetentionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce purges once and returns the number of deleted events.
func (s *RetentionService) runOnce(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	purged, err := s.purger.Purge(ctx, cutoff)
	metrics.RecordRetentionRun(purged, err)

	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		logging.Error().Err(err).Time("cutoff", cutoff).Msg("Audit retention cleanup failed")
	case purged > 0:
		logging.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("Audit retention cleanup completed")
	}
	return purged
}

// String implements fmt.Stringer for suture's event log.
func (s *RetentionService) String() string {
	return "audit-retention"
}
