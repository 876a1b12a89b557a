// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package middleware provides chi-compatible HTTP middleware.

Key Components:

  - RequestID: request and correlation identifiers for tracing and audit events
  - ClientInfo: caller IP address and User-Agent for audit events
  - PrometheusMetrics: request count, latency and in-flight gauge by route pattern

Middleware Stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ClientInfo)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
