// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import "context"

// RecordReservationCreated records a new reservation.
func (j *Journal) RecordReservationCreated(ctx context.Context, reservationID string, reservation map[string]any) {
	j.Record(ctx, Entry{
		Action:     ActionCreate,
		EntityType: EntityReservation,
		EntityID:   reservationID,
		NewValues:  reservation,
	})
}

// RecordReservationUpdated records a change to a reservation.
func (j *Journal) RecordReservationUpdated(ctx context.Context, reservationID string, before, after map[string]any) {
	j.Record(ctx, Entry{
		Action:     ActionUpdate,
		EntityType: EntityReservation,
		EntityID:   reservationID,
		OldValues:  before,
		NewValues:  after,
	})
}

// RecordReservationDeleted records the removal of a reservation.
func (j *Journal) RecordReservationDeleted(ctx context.Context, reservationID string, reservation map[string]any) {
	j.Record(ctx, Entry{
		Action:     ActionDelete,
		EntityType: EntityReservation,
		EntityID:   reservationID,
		OldValues:  reservation,
	})
}

// RecordPaymentProcessed records a payment attempt. A non-nil err records a
// failure with its message.
func (j *Journal) RecordPaymentProcessed(ctx context.Context, paymentID string, details map[string]any, err error) {
	entry := Entry{
		Action:     ActionPaymentProcessed,
		EntityType: EntityPayment,
		EntityID:   paymentID,
		NewValues:  details,
	}
	withOutcome(&entry, err)
	j.Record(ctx, entry)
}

// RecordInvoiceGenerated records an issued invoice.
func (j *Journal) RecordInvoiceGenerated(ctx context.Context, invoiceID string, invoice map[string]any) {
	j.Record(ctx, Entry{
		Action:     ActionInvoiceGenerated,
		EntityType: EntityInvoice,
		EntityID:   invoiceID,
		NewValues:  invoice,
	})
}

// RecordFiscalSubmission records a submission to the fiscal authority.
func (j *Journal) RecordFiscalSubmission(ctx context.Context, recordID string, data map[string]any, err error) {
	entry := Entry{
		Action:     ActionFiscalSubmitted,
		EntityType: EntityFiscalRecord,
		EntityID:   recordID,
		NewValues:  data,
	}
	withOutcome(&entry, err)
	j.Record(ctx, entry)
}

// RecordDataExport records a bulk export of count records.
func (j *Journal) RecordDataExport(ctx context.Context, entityType EntityType, count int, format string) {
	j.Record(ctx, Entry{
		Action:     ActionExport,
		EntityType: entityType,
		EntityID:   BulkEntityID,
		Metadata: map[string]any{
			"record_count": count,
			"format":       format,
		},
	})
}

// RecordDataImport records a bulk import. The result is partial when some
// records failed and failure when none were imported.
func (j *Journal) RecordDataImport(ctx context.Context, entityType EntityType, imported, failed int) {
	result := ResultSuccess
	switch {
	case failed > 0 && imported == 0:
		result = ResultFailure
	case failed > 0:
		result = ResultPartial
	}
	j.Record(ctx, Entry{
		Action:     ActionDataImported,
		EntityType: entityType,
		EntityID:   BulkEntityID,
		Result:     result,
		Metadata: map[string]any{
			"imported": imported,
			"failed":   failed,
		},
	})
}

// RecordSettingsChanged records a change to one setting.
func (j *Journal) RecordSettingsChanged(ctx context.Context, key string, before, after any) {
	j.Record(ctx, Entry{
		Action:     ActionSettingsChanged,
		EntityType: EntitySettings,
		EntityID:   key,
		OldValues:  map[string]any{key: before},
		NewValues:  map[string]any{key: after},
	})
}

// RecordBackupCreated records a completed backup.
func (j *Journal) RecordBackupCreated(ctx context.Context, backupID string, details map[string]any) {
	j.Record(ctx, Entry{
		Action:     ActionBackupCreated,
		EntityType: EntitySystem,
		EntityID:   backupID,
		Metadata:   details,
	})
}

func withOutcome(entry *Entry, err error) {
	if err != nil {
		entry.Result = ResultFailure
		entry.ErrorMessage = err.Error()
		return
	}
	entry.Result = ResultSuccess
}
