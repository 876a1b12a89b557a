// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"time"
)

// Action is the closed set of operations the journal records.
type Action string

const (
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionView             Action = "view"
	ActionExport           Action = "export"
	ActionLogin            Action = "login"
	ActionLogout           Action = "logout"
	ActionPasswordChange   Action = "password_change"
	ActionPaymentProcessed Action = "payment_processed"
	ActionInvoiceGenerated Action = "invoice_generated"
	ActionFiscalSubmitted  Action = "fiscal_submitted"
	ActionBackupCreated    Action = "backup_created"
	ActionDataImported     Action = "data_imported"
	ActionSettingsChanged  Action = "settings_changed"
)

// Actions lists every Action in declaration order.
var Actions = []Action{
	ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionExport,
	ActionLogin, ActionLogout, ActionPasswordChange, ActionPaymentProcessed,
	ActionInvoiceGenerated, ActionFiscalSubmitted, ActionBackupCreated,
	ActionDataImported, ActionSettingsChanged,
}

// Valid reports whether a is a member of the enumeration.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// EntityType is the closed set of record kinds an event can target.
type EntityType string

const (
	EntityReservation  EntityType = "reservation"
	EntityGuest        EntityType = "guest"
	EntityRoom         EntityType = "room"
	EntityCompany      EntityType = "company"
	EntityPricingTier  EntityType = "pricing_tier"
	EntityInvoice      EntityType = "invoice"
	EntityPayment      EntityType = "payment"
	EntityFiscalRecord EntityType = "fiscal_record"
	EntityUser         EntityType = "user"
	EntitySystem       EntityType = "system"
	EntitySettings     EntityType = "settings"
)

// EntityTypes lists every EntityType in declaration order.
var EntityTypes = []EntityType{
	EntityReservation, EntityGuest, EntityRoom, EntityCompany, EntityPricingTier,
	EntityInvoice, EntityPayment, EntityFiscalRecord, EntityUser, EntitySystem,
	EntitySettings,
}

// Valid reports whether t is a member of the enumeration.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Result is the outcome of an audited operation.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultPartial Result = "partial"
)

// Valid reports whether r is a known outcome.
func (r Result) Valid() bool {
	return r == ResultSuccess || r == ResultFailure || r == ResultPartial
}

const (
	// BulkEntityID marks events that touch many records at once.
	BulkEntityID = "bulk"

	// UnknownClient is used when the client address or agent cannot be determined.
	UnknownClient = "unknown"

	// AnonymousActor groups events recorded with no current user.
	AnonymousActor = "anonymous"
)

// Event is one recorded sensitive operation. Events are never mutated after
// the Recorder creates them.
type Event struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	UserID        string         `json:"user_id,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	Action        Action         `json:"action"`
	EntityType    EntityType     `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	OldValues     map[string]any `json:"old_values,omitempty"`
	NewValues     map[string]any `json:"new_values,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
	IPAddress     string         `json:"ip_address"`
	UserAgent     string         `json:"user_agent"`
	Result        Result         `json:"result"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// actor returns the key used when grouping events by user.
func (e *Event) actor() string {
	if e.UserID == "" {
		return AnonymousActor
	}
	return e.UserID
}

// Entry describes an operation to record. The Recorder fills in everything
// else (ID, timestamp, actor, client, changed fields, correlation).
type Entry struct {
	Action       Action         `json:"action" validate:"required,enum"`
	EntityType   EntityType     `json:"entity_type" validate:"required,enum"`
	EntityID     string         `json:"entity_id" validate:"required,max=256"`
	OldValues    map[string]any `json:"old_values,omitempty"`
	NewValues    map[string]any `json:"new_values,omitempty"`
	Result       Result         `json:"result,omitempty" validate:"omitempty,enum"`
	ErrorMessage string         `json:"error_message,omitempty" validate:"max=4096"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// TimeRange bounds analytics queries. Zero values leave that side open.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Filter selects events from the trail. Zero-valued fields do not constrain.
type Filter struct {
	UserID     string     `json:"user_id,omitempty" validate:"max=256"`
	EntityType EntityType `json:"entity_type,omitempty" validate:"omitempty,enum"`
	EntityID   string     `json:"entity_id,omitempty" validate:"max=256"`
	Action     Action     `json:"action,omitempty" validate:"omitempty,enum"`
	Result     Result     `json:"result,omitempty" validate:"omitempty,enum"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`

	// Limit caps the number of results. Zero means no cap.
	Limit int `json:"limit,omitempty" validate:"gte=0,lte=10000"`
}

// FilterForRange returns a filter restricted to r.
func FilterForRange(r TimeRange) Filter {
	var f Filter
	if !r.Start.IsZero() {
		start := r.Start
		f.StartTime = &start
	}
	if !r.End.IsZero() {
		end := r.End
		f.EndTime = &end
	}
	return f
}

// Matches reports whether e satisfies every constraint in f. It is the single
// predicate used for in-memory filtering, so the buffer fallback and the
// embedded stores select exactly what the SQL store selects.
func (f *Filter) Matches(e *Event) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Result != "" && e.Result != f.Result {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

// Store is the backing store collaborator. InsertFull and InsertReduced are
// the two row encodings of the same batch; the reduced form exists for tables
// that predate the changed_fields column.
type Store interface {
	// InsertFull writes the batch including changed_fields.
	InsertFull(ctx context.Context, rows []FullRow) error

	// InsertReduced writes the batch without changed_fields.
	InsertReduced(ctx context.Context, rows []Row) error

	// Query returns matching events, newest first, at most filter.Limit.
	Query(ctx context.Context, filter Filter) ([]Event, error)
}

// Purger is implemented by stores that support retention cleanup.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}
