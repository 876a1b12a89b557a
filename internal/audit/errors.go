// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"errors"
	"fmt"
)

var (
	// ErrNilStore is returned by NewJournal when no store is supplied.
	ErrNilStore = errors.New("audit store is nil")

	// ErrUnknownDriver is returned by OpenStore for unsupported drivers.
	ErrUnknownDriver = errors.New("unknown audit store driver")
)

// MissingColumnError reports that the store's table lacks a column the
// write referenced.
type MissingColumnError struct {
	Table  string
	Column string
	Err    error
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s has no column %s: %v", e.Table, e.Column, e.Err)
}

func (e *MissingColumnError) Unwrap() error { return e.Err }

// isChangedFieldsRejection reports whether err means the store rejected the
// write only because changed_fields does not exist. Stores that translate
// driver errors return MissingColumnError; others are recognised by the
// driver's missing-column phrasing. Any other error naming the column, such
// as a conversion failure, is not a rejection.
func isChangedFieldsRejection(err error) bool {
	if err == nil {
		return false
	}
	var mce *MissingColumnError
	if errors.As(err, &mce) {
		return mce.Column == ColumnChangedFields
	}
	return isMissingChangedFields(err)
}
