// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/innledger/internal/middleware"
)

// AuditRoutePrefix is the mount point of the audit endpoints.
const AuditRoutePrefix = "/api/v1/audit"

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil config uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, config *ChiMiddlewareConfig) *Router {
	return &Router{handler: handler, chiMiddleware: NewChiMiddleware(config)}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Order matters: IDs first so every later log line carries them, RealIP
	// before ClientInfo so audit events see the proxied address.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ClientInfo)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(AuditRoutePrefix, func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("audit"))

		r.Post("/events", router.handler.RecordEvent)
		r.Get("/events", router.handler.ListEvents)
		r.Get("/stats", router.handler.GetStats)
		r.Get("/compliance", router.handler.GetCompliance)
		r.Get("/suspicious", router.handler.GetSuspicious)
		r.Get("/export", router.handler.Export)

		r.Get("/session", router.handler.GetSession)
		r.Put("/session", router.handler.SetSession)
		r.Delete("/session", router.handler.ClearSession)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
