// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Audit journal buffering and flushing
// - Audit store resilience (circuit breaker, fallbacks)
// - API endpoint latency and throughput
// - Retention cleanup

var (
	// Audit Journal Metrics
	AuditBufferEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_buffer_events",
			Help: "Current number of audit events awaiting persistence",
		},
	)

	AuditEventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_recorded_total",
			Help: "Total number of audit events recorded",
		},
		[]string{"action", "result"},
	)

	AuditEventsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_evicted_total",
			Help: "Total number of unflushed audit events dropped because the buffer was full",
		},
	)

	AuditEventsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_persisted_total",
			Help: "Total number of audit events written to the store",
		},
	)

	AuditFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_flush_duration_seconds",
			Help:    "Duration of audit buffer flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AuditFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_flushes_total",
			Help: "Total number of audit flushes by outcome",
		},
		[]string{"outcome"}, // success, degraded, failure
	)

	AuditSchemaFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_schema_fallbacks_total",
			Help: "Total number of flushes retried without the changed_fields column",
		},
	)

	AuditReadFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_read_fallbacks_total",
			Help: "Total number of audit reads served from the local buffer after a store error",
		},
	)

	AuditReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_reports_total",
			Help: "Total number of failures reported by the audit journal",
		},
		[]string{"component", "severity"},
	)

	// Retention Metrics
	AuditEventsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_purged_total",
			Help: "Total number of audit events removed by retention cleanup",
		},
	)

	AuditRetentionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_retention_errors_total",
			Help: "Total number of failed retention cleanup runs",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"endpoint"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRetentionRun records the outcome of one retention cleanup.
func RecordRetentionRun(purged int64, err error) {
	if err != nil {
		AuditRetentionErrors.Inc()
		return
	}
	AuditEventsPurged.Add(float64(purged))
}
