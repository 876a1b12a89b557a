// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package api exposes the audit journal over HTTP with the chi router.

# Endpoints

	POST   /api/v1/audit/events       record an entry (202 Accepted)
	GET    /api/v1/audit/events       audit trail; filters: user_id, entity_type,
	                                  entity_id, action, result, start_time,
	                                  end_time (RFC3339), limit
	GET    /api/v1/audit/stats        statistics over start_time/end_time
	GET    /api/v1/audit/compliance   compliance report over start_time/end_time
	GET    /api/v1/audit/suspicious   suspicious activity in the last 24 hours
	GET    /api/v1/audit/export       trail as json or cef (records an export event)
	GET    /api/v1/audit/session      current actor
	PUT    /api/v1/audit/session      set the current actor (records a login)
	DELETE /api/v1/audit/session      clear the current actor (records a logout)
	GET    /health                    liveness and buffer depth
	GET    /metrics                   Prometheus metrics

# Responses

JSON responses share one envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "request_id": "..."}}
	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "...", "message": "..."}}

Read endpoints never fail because the store is unavailable: the journal
answers from its buffer instead.

# Middleware

Every request gets a request and correlation ID, the caller's IP and
User-Agent (copied onto recorded events), Prometheus instrumentation, CORS
and, under /api/v1/audit, per-IP rate limiting with go-chi/httprate.
*/
package api
