// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/innledger/internal/audit"
	"github.com/tomtom215/innledger/internal/logging"
)

// Journal is the audit journal as seen by the HTTP layer. Satisfied by
// *audit.Journal.
type Journal interface {
	Record(ctx context.Context, entry audit.Entry)
	RecordDataExport(ctx context.Context, entityType audit.EntityType, count int, format string)
	SetCurrentUser(ctx context.Context, userID, sessionID string)
	ClearCurrentUser(ctx context.Context)
	CurrentUser() audit.Actor
	Trail(ctx context.Context, filter audit.Filter) []audit.Event
	Statistics(ctx context.Context, r audit.TimeRange) audit.Stats
	ComplianceReport(ctx context.Context, period audit.TimeRange) audit.ComplianceReport
	DetectSuspiciousActivity(ctx context.Context) audit.SuspiciousActivity
	Buffered() []audit.Event
	Now() time.Time
}

// BreakerState reports the store circuit breaker state. Satisfied by
// *audit.BreakerStore.
type BreakerState interface {
	State() string
}

// Handler serves the audit endpoints.
type Handler struct {
	journal Journal
	breaker BreakerState
}

// NewHandler creates a Handler. breaker may be nil.
func NewHandler(journal Journal, breaker BreakerState) *Handler {
	return &Handler{journal: journal, breaker: breaker}
}

// SessionRequest is the body of PUT /session.
type SessionRequest struct {
	UserID    string `json:"user_id" validate:"required,max=256"`
	SessionID string `json:"session_id" validate:"max=256"`
}

// RecordEvent handles POST /api/v1/audit/events.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var entry audit.Entry
	if err := decodeBody(w, r, &entry); err != nil {
		respondRequestError(w, r, err)
		return
	}

	h.journal.Record(r.Context(), entry)
	respondData(w, r, http.StatusAccepted, map[string]any{"accepted": true})
}

// ListEvents handles GET /api/v1/audit/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondRequestError(w, r, err)
		return
	}

	events := h.journal.Trail(r.Context(), filter)
	respondList(w, r, events, len(events))
}

// GetStats handles GET /api/v1/audit/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	period, err := parseTimeRange(r)
	if err != nil {
		respondRequestError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, h.journal.Statistics(r.Context(), period))
}

// GetCompliance handles GET /api/v1/audit/compliance.
func (h *Handler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	period, err := parseTimeRange(r)
	if err != nil {
		respondRequestError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, h.journal.ComplianceReport(r.Context(), period))
}

// GetSuspicious handles GET /api/v1/audit/suspicious.
func (h *Handler) GetSuspicious(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, h.journal.DetectSuspiciousActivity(r.Context()))
}

// Export handles GET /api/v1/audit/export. The export itself is audited.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = audit.FormatJSON
	}
	exporter, err := audit.NewExporter(format)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		respondRequestError(w, r, err)
		return
	}

	events := h.journal.Trail(r.Context(), filter)
	data, err := exporter.Export(events)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeExportFailed, "Failed to export audit events", err)
		return
	}

	entityType := filter.EntityType
	if entityType == "" {
		entityType = audit.EntitySystem
	}
	h.journal.RecordDataExport(r.Context(), entityType, len(events), format)

	filename := fmt.Sprintf("audit-export-%s.%s", h.journal.Now().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write export")
	}
}

// GetSession handles GET /api/v1/audit/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	actor := h.journal.CurrentUser()
	respondData(w, r, http.StatusOK, map[string]any{
		"user_id":    actor.UserID,
		"session_id": actor.SessionID,
		"active":     actor.UserID != "",
	})
}

// SetSession handles PUT /api/v1/audit/session.
func (h *Handler) SetSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondRequestError(w, r, err)
		return
	}

	h.journal.SetCurrentUser(r.Context(), req.UserID, req.SessionID)
	logging.Ctx(r.Context()).Info().
		Str("user_id", logging.MaskID(req.UserID)).
		Str("session_id", logging.MaskID(req.SessionID)).
		Msg("Audit actor set")

	respondData(w, r, http.StatusOK, map[string]any{
		"user_id":    req.UserID,
		"session_id": req.SessionID,
		"active":     true,
	})
}

// ClearSession handles DELETE /api/v1/audit/session.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	h.journal.ClearCurrentUser(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":          "ok",
		"buffered_events": len(h.journal.Buffered()),
	}
	if h.breaker != nil {
		body["store_breaker"] = h.breaker.State()
	}
	respondData(w, r, http.StatusOK, body)
}
