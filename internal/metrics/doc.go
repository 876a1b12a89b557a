// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package metrics provides Prometheus metrics for the audit journal service.

Metrics are registered on the default registry via promauto and exposed at
the /metrics endpoint in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

Audit Journal:
  - audit_buffer_events: Events awaiting persistence (gauge)
  - audit_events_recorded_total: Recorded events (counter)
    Labels: action, result
  - audit_events_evicted_total: Events dropped from a full buffer (counter)
  - audit_events_persisted_total: Events written to the store (counter)
  - audit_flush_duration_seconds: Flush latency (histogram)
  - audit_flushes_total: Flushes (counter)
    Labels: outcome (success, degraded, failure)
  - audit_schema_fallbacks_total: Flushes retried without changed_fields (counter)
  - audit_read_fallbacks_total: Reads served from the buffer (counter)
  - audit_reports_total: Reported failures (counter)
    Labels: component, severity

Retention:
  - audit_events_purged_total (counter)
  - audit_retention_errors_total (counter)

Circuit Breaker:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: name
  - circuit_breaker_requests_total (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

API:
  - api_requests_total (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds (histogram)
    Labels: method, endpoint
  - api_active_requests (gauge)
  - api_rate_limit_hits_total (counter)
    Labels: endpoint
*/
package metrics
