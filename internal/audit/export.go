// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCEF  = "cef"
)

// Exporter renders events for download or SIEM ingestion.
type Exporter interface {
	Export(events []Event) ([]byte, error)
	ContentType() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return &JSONExporter{}, nil
	case FormatCEF:
		return NewCEFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// JSONExporter exports events in JSON format.
type JSONExporter struct{}

// Export exports events to JSON format.
func (e *JSONExporter) Export(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.MarshalIndent(events, "", "  ")
}

// ContentType implements Exporter.
func (e *JSONExporter) ContentType() string { return "application/json" }

// CEFExporter exports events in Common Event Format (for SIEM integration).
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a new CEF exporter with defaults.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "Innledger",
		DeviceProduct: "FrontDeskAudit",
		DeviceVersion: "1.0",
	}
}

// ContentType implements Exporter.
func (e *CEFExporter) ContentType() string { return "text/plain; charset=utf-8" }

// Export exports events to CEF format, one line per event.
// CEF Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(events []Event) ([]byte, error) {
	lines := make([]string, 0, len(events))
	for idx := range events {
		event := &events[idx]
		lines = append(lines, fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
			e.escapeHeader(e.DeviceVendor),
			e.escapeHeader(e.DeviceProduct),
			e.escapeHeader(e.DeviceVersion),
			e.escapeHeader(string(event.Action)),
			e.escapeHeader(string(event.EntityType)+" "+string(event.Action)),
			cefSeverity(event),
			e.buildExtension(event),
		))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// cefSeverity maps an event to CEF severity (0-10).
func cefSeverity(event *Event) int {
	switch {
	case event.Result == ResultFailure && IsCritical(event.Action, event.EntityType):
		return 10
	case event.Result == ResultFailure:
		return 7
	case IsCritical(event.Action, event.EntityType):
		return 5
	case event.Result == ResultPartial:
		return 5
	default:
		return 3
	}
}

// buildExtension builds the CEF extension string.
func (e *CEFExporter) buildExtension(event *Event) string {
	parts := []string{fmt.Sprintf("rt=%d", event.Timestamp.UnixMilli())}

	if event.UserID != "" {
		parts = append(parts, "suid="+e.escapeExtension(event.UserID))
	}
	if event.IPAddress != "" && event.IPAddress != UnknownClient {
		parts = append(parts, "src="+e.escapeExtension(event.IPAddress))
	}
	if event.UserAgent != "" && event.UserAgent != UnknownClient {
		parts = append(parts, "requestClientApplication="+e.escapeExtension(event.UserAgent))
	}

	parts = append(parts,
		"act="+e.escapeExtension(string(event.Action)),
		"cs1Label=entityType",
		"cs1="+e.escapeExtension(string(event.EntityType)),
		"duid="+e.escapeExtension(event.EntityID),
		"outcome="+e.escapeExtension(string(event.Result)),
	)

	if len(event.ChangedFields) > 0 {
		parts = append(parts,
			"cs2Label=changedFields",
			"cs2="+e.escapeExtension(strings.Join(event.ChangedFields, ",")),
		)
	}
	if event.ErrorMessage != "" {
		parts = append(parts, "reason="+e.escapeExtension(event.ErrorMessage))
	}
	if event.CorrelationID != "" {
		parts = append(parts, "externalId="+e.escapeExtension(event.CorrelationID))
	}

	return strings.Join(parts, " ")
}

// escapeHeader escapes header fields, where pipes delimit.
func (e *CEFExporter) escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return flattenLines(s)
}

// escapeExtension escapes extension values, where equals signs delimit.
func (e *CEFExporter) escapeExtension(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "=", "\\=")
	return flattenLines(s)
}

func flattenLines(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}
