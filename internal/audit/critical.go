// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"sort"

	"github.com/goccy/go-json"
)

// IsCritical reports whether an operation bypasses periodic batching and is
// flushed immediately. The classification is static.
func IsCritical(action Action, entityType EntityType) bool {
	switch action {
	case ActionDelete, ActionPaymentProcessed, ActionFiscalSubmitted,
		ActionSettingsChanged, ActionDataImported:
		return true
	}
	switch entityType {
	case EntityPayment, EntityFiscalRecord, EntitySettings, EntityUser:
		return true
	}
	return false
}

// ChangedFields returns the sorted keys whose serialized values differ
// between the two snapshots. Keys present in only one snapshot count as
// changed. When either snapshot is nil the result is empty.
func ChangedFields(oldValues, newValues map[string]any) []string {
	if oldValues == nil || newValues == nil {
		return nil
	}

	keys := make(map[string]struct{}, len(oldValues)+len(newValues))
	for k := range oldValues {
		keys[k] = struct{}{}
	}
	for k := range newValues {
		keys[k] = struct{}{}
	}

	var changed []string
	for k := range keys {
		before, inOld := oldValues[k]
		after, inNew := newValues[k]
		if inOld != inNew || serialize(before) != serialize(after) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// serialize renders v as canonical JSON. Map keys are emitted sorted, so two
// structurally equal values always compare equal.
func serialize(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Unserializable values never compare equal to anything else.
		return "\x00unserializable"
	}
	return string(data)
}
