// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/innledger/internal/logging"
)

// DefaultTable is the audit table name.
const DefaultTable = "audit_events"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// DuckDBStore implements Store using DuckDB for persistent storage.
// Each batch is written in one transaction, so a failed flush leaves no
// partial rows behind.
type DuckDBStore struct {
	db    *sql.DB
	table string
}

// NewDuckDBStore creates a DuckDB-backed audit store over table.
// The caller is responsible for ensuring the table exists, see CreateTable.
func NewDuckDBStore(db *sql.DB, table string) (*DuckDBStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	return &DuckDBStore{db: db, table: table}, nil
}

// CreateTable creates the audit table if it doesn't exist. A legacy table
// omits changed_fields, matching deployments that predate that column.
func (s *DuckDBStore) CreateTable(ctx context.Context, legacy bool) error {
	changedFields := "\t\t\tchanged_fields JSON,\n"
	if legacy {
		changedFields = ""
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			user_id TEXT,
			session_id TEXT,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			old_values JSON,
			new_values JSON,
%[2]s			ip_address TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			result TEXT NOT NULL,
			error_message TEXT,
			metadata JSON,
			correlation_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.table, changedFields),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_timestamp ON %[1]s(timestamp DESC)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_user_id ON %[1]s(user_id)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_entity ON %[1]s(entity_type, entity_id)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_action ON %[1]s(action)`, s.table),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().
		Str("table", s.table).
		Bool("legacy", legacy).
		Msg("Audit events table created/verified")
	return nil
}

// reducedColumns is the column list shared by both row encodings.
const reducedColumns = `id, timestamp, user_id, session_id, action, entity_type, entity_id,
	old_values, new_values, ip_address, user_agent, result, error_message,
	metadata, correlation_id`

// InsertFull implements Store.
func (s *DuckDBStore) InsertFull(ctx context.Context, rows []FullRow) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, changed_fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table, reducedColumns)

	return s.insertBatch(ctx, query, len(rows), func(i int) []any {
		return append(rowParams(&rows[i].Row), changedFieldsParam(rows[i].ChangedFields))
	})
}

// InsertReduced implements Store.
func (s *DuckDBStore) InsertReduced(ctx context.Context, rows []Row) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table, reducedColumns)

	return s.insertBatch(ctx, query, len(rows), func(i int) []any {
		return rowParams(&rows[i])
	})
}

// insertBatch executes query once per row inside a single transaction.
func (s *DuckDBStore) insertBatch(ctx context.Context, query string, n int, params func(i int) []any) (err error) {
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Audit transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return s.translate(fmt.Errorf("failed to prepare audit insert: %w", err))
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err = stmt.ExecContext(ctx, params(i)...); err != nil {
			return s.translate(fmt.Errorf("failed to insert audit event: %w", err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit batch: %w", err)
	}
	return nil
}

// translate turns a binder error about the missing changed_fields column
// into MissingColumnError. Other errors pass through.
func (s *DuckDBStore) translate(err error) error {
	if isMissingChangedFields(err) {
		return &MissingColumnError{Table: s.table, Column: ColumnChangedFields, Err: err}
	}
	return err
}

func isMissingChangedFields(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, ColumnChangedFields) &&
		(strings.Contains(msg, "does not have a column") ||
			strings.Contains(msg, "not found") ||
			strings.Contains(msg, "does not exist") ||
			strings.Contains(msg, "binder error"))
}

func rowParams(r *Row) []any {
	return []any{
		r.ID,
		r.Timestamp,
		nullString(r.UserID),
		nullString(r.SessionID),
		r.Action,
		r.EntityType,
		r.EntityID,
		jsonParam(r.OldValues),
		jsonParam(r.NewValues),
		r.IPAddress,
		r.UserAgent,
		r.Result,
		nullString(r.ErrorMessage),
		jsonParam(r.Metadata),
		nullString(r.CorrelationID),
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jsonParam converts raw JSON to a string for a DuckDB JSON column.
func jsonParam(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}

func changedFieldsParam(fields []string) *string {
	if len(fields) == 0 {
		return nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

// Query implements Store. Tables without changed_fields are read with that
// column left empty.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	events, err := s.query(ctx, filter, "CAST(changed_fields AS VARCHAR)")
	if err != nil && isMissingChangedFields(err) {
		return s.query(ctx, filter, "NULL")
	}
	return events, err
}

func (s *DuckDBStore) query(ctx context.Context, filter Filter, changedFieldsExpr string) ([]Event, error) {
	conditions, args := buildFilterConditions(&filter)

	// Cast JSON columns to VARCHAR for proper scanning
	query := fmt.Sprintf(`
		SELECT
			id, timestamp, user_id, session_id, action, entity_type, entity_id,
			CAST(old_values AS VARCHAR), CAST(new_values AS VARCHAR),
			ip_address, user_agent, result, error_message,
			CAST(metadata AS VARCHAR), correlation_id,
			%s
		FROM %s`, changedFieldsExpr, s.table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var data scannedRow
		if err := rows.Scan(data.destinations()...); err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit event row")
			continue
		}
		events = append(events, data.event())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

// buildFilterConditions builds WHERE clause conditions equivalent to
// Filter.Matches.
func buildFilterConditions(filter *Filter) ([]string, []any) {
	var conditions []string
	var args []any

	conditions, args = appendStringCondition(conditions, args, "user_id", filter.UserID)
	conditions, args = appendStringCondition(conditions, args, "entity_type", string(filter.EntityType))
	conditions, args = appendStringCondition(conditions, args, "entity_id", filter.EntityID)
	conditions, args = appendStringCondition(conditions, args, "action", string(filter.Action))
	conditions, args = appendStringCondition(conditions, args, "result", string(filter.Result))

	if filter.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndTime)
	}
	return conditions, args
}

// appendStringCondition adds a string equality condition if value is non-empty.
func appendStringCondition(conditions []string, args []any, column, value string) ([]string, []any) {
	if value != "" {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	return conditions, args
}

// Purge implements Purger.
func (s *DuckDBStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE timestamp < ?`, s.table), olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}

// Ping verifies the connection.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// scannedRow holds raw scanned values from the database.
type scannedRow struct {
	row           Row
	userID        sql.NullString
	sessionID     sql.NullString
	oldValues     sql.NullString
	newValues     sql.NullString
	errorMessage  sql.NullString
	metadata      sql.NullString
	correlationID sql.NullString
	changedFields sql.NullString
}

func (d *scannedRow) destinations() []any {
	return []any{
		&d.row.ID,
		&d.row.Timestamp,
		&d.userID,
		&d.sessionID,
		&d.row.Action,
		&d.row.EntityType,
		&d.row.EntityID,
		&d.oldValues,
		&d.newValues,
		&d.row.IPAddress,
		&d.row.UserAgent,
		&d.row.Result,
		&d.errorMessage,
		&d.metadata,
		&d.correlationID,
		&d.changedFields,
	}
}

func (d *scannedRow) event() Event {
	d.row.UserID = d.userID.String
	d.row.SessionID = d.sessionID.String
	d.row.ErrorMessage = d.errorMessage.String
	d.row.CorrelationID = d.correlationID.String
	d.row.OldValues = rawJSON(d.oldValues)
	d.row.NewValues = rawJSON(d.newValues)
	d.row.Metadata = rawJSON(d.metadata)
	d.row.Timestamp = d.row.Timestamp.UTC()

	var changed []string
	if d.changedFields.Valid && d.changedFields.String != "" {
		if err := json.Unmarshal([]byte(d.changedFields.String), &changed); err != nil {
			logging.Debug().Err(err).Str("changed_fields", d.changedFields.String).Msg("Failed to parse changed fields JSON")
		}
	}
	return d.row.Event(changed)
}

func rawJSON(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
