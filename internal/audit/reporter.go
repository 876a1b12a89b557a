// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/metrics"
)

// Severity grades a report sent to the error-reporting collaborator.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Report is one message for the error-reporting collaborator.
type Report struct {
	Component string
	Message   string
	Severity  Severity
	Payload   map[string]any
}

// Reporter receives failures from the journal. Implementations must not
// block and must not panic; the journal never inspects the outcome.
type Reporter interface {
	Report(ctx context.Context, r Report)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, r Report)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, r Report) { f(ctx, r) }

// LogReporter writes reports to the structured log and counts them.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, r Report) {
	metrics.AuditReportsTotal.WithLabelValues(r.Component, string(r.Severity)).Inc()

	logger := logging.Ctx(ctx)
	var event *zerolog.Event
	switch r.Severity {
	case SeverityDebug:
		event = logger.Debug()
	case SeverityInfo:
		event = logger.Info()
	case SeverityWarning:
		event = logger.Warn()
	default:
		event = logger.Error()
	}

	event = event.Str("component", r.Component).Str("severity", string(r.Severity))
	if len(r.Payload) > 0 {
		event = event.Fields(logging.RedactFields(r.Payload))
	}
	event.Msg(r.Message)
}
