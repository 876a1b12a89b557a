// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/innledger/internal/logging"
)

// ColumnChangedFields is the optional column older schemas may lack.
const ColumnChangedFields = "changed_fields"

// Row is the reduced row encoding: every column of the audit table except
// changed_fields. Snapshot columns hold JSON and are nil when absent.
type Row struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	Action        string          `json:"action"`
	EntityType    string          `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	OldValues     json.RawMessage `json:"old_values,omitempty"`
	NewValues     json.RawMessage `json:"new_values,omitempty"`
	IPAddress     string          `json:"ip_address"`
	UserAgent     string          `json:"user_agent"`
	Result        string          `json:"result"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// FullRow is the full row encoding, including changed_fields.
type FullRow struct {
	Row
	ChangedFields []string `json:"changed_fields,omitempty"`
}

// NewRow encodes e without changed_fields.
func NewRow(e *Event) Row {
	return Row{
		ID:            e.ID,
		Timestamp:     e.Timestamp,
		UserID:        e.UserID,
		SessionID:     e.SessionID,
		Action:        string(e.Action),
		EntityType:    string(e.EntityType),
		EntityID:      e.EntityID,
		OldValues:     marshalSnapshot(e.OldValues),
		NewValues:     marshalSnapshot(e.NewValues),
		IPAddress:     e.IPAddress,
		UserAgent:     e.UserAgent,
		Result:        string(e.Result),
		ErrorMessage:  e.ErrorMessage,
		Metadata:      marshalSnapshot(e.Metadata),
		CorrelationID: e.CorrelationID,
	}
}

// NewFullRow encodes e including changed_fields.
func NewFullRow(e *Event) FullRow {
	return FullRow{Row: NewRow(e), ChangedFields: e.ChangedFields}
}

// FullRows encodes a batch in the full shape, preserving order.
func FullRows(events []Event) []FullRow {
	rows := make([]FullRow, len(events))
	for i := range events {
		rows[i] = NewFullRow(&events[i])
	}
	return rows
}

// ReducedRows encodes a batch in the reduced shape, preserving order.
func ReducedRows(events []Event) []Row {
	rows := make([]Row, len(events))
	for i := range events {
		rows[i] = NewRow(&events[i])
	}
	return rows
}

// Event decodes a row read back from a store. changedFields is passed
// separately because the reduced shape does not carry it.
func (r *Row) Event(changedFields []string) Event {
	return Event{
		ID:            r.ID,
		Timestamp:     r.Timestamp,
		UserID:        r.UserID,
		SessionID:     r.SessionID,
		Action:        Action(r.Action),
		EntityType:    EntityType(r.EntityType),
		EntityID:      r.EntityID,
		OldValues:     unmarshalSnapshot(r.OldValues),
		NewValues:     unmarshalSnapshot(r.NewValues),
		ChangedFields: changedFields,
		IPAddress:     r.IPAddress,
		UserAgent:     r.UserAgent,
		Result:        Result(r.Result),
		ErrorMessage:  r.ErrorMessage,
		Metadata:      unmarshalSnapshot(r.Metadata),
		CorrelationID: r.CorrelationID,
	}
}

func marshalSnapshot(v map[string]any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to marshal audit snapshot")
		return json.RawMessage("{}")
	}
	return data
}

func unmarshalSnapshot(raw json.RawMessage) map[string]any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		logging.Debug().Err(err).Msg("Failed to parse audit snapshot JSON")
		return nil
	}
	return out
}
