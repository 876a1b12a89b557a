// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const badgerKeyPrefix = "audit:event:"

// BadgerStore implements Store on an embedded BadgerDB. Keys sort by event
// time, so newest-first reads are a reverse prefix scan. Values are JSON
// rows; reduced rows are stored without changed_fields.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens a BadgerDB at path. An empty path opens an
// in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for audit events: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func badgerKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", badgerKeyPrefix, ts.UnixNano(), id))
}

// InsertFull implements Store.
func (s *BadgerStore) InsertFull(ctx context.Context, rows []FullRow) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range rows {
			if err := putRow(txn, &rows[i].Row, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertReduced implements Store.
func (s *BadgerStore) InsertReduced(ctx context.Context, rows []Row) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range rows {
			if err := putRow(txn, &rows[i], &FullRow{Row: rows[i]}); err != nil {
				return err
			}
		}
		return nil
	})
}

func putRow(txn *badger.Txn, key *Row, value *FullRow) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal audit row %s: %w", key.ID, err)
	}
	if err := txn.Set(badgerKey(key.Timestamp, key.ID), data); err != nil {
		return fmt.Errorf("store audit row %s: %w", key.ID, err)
	}
	return nil
}

// Query implements Store.
func (s *BadgerStore) Query(ctx context.Context, filter Filter) ([]Event, error) {
	events := []Event{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(badgerKeyPrefix + "\xff")
		if filter.EndTime != nil {
			seek = []byte(fmt.Sprintf("%s%020d:\xff", badgerKeyPrefix, filter.EndTime.UnixNano()))
		}

		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var row FullRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return fmt.Errorf("decode audit row: %w", err)
			}

			event := row.Event(row.ChangedFields)
			if filter.StartTime != nil && event.Timestamp.Before(*filter.StartTime) {
				break
			}
			if !filter.Matches(&event) {
				continue
			}
			events = append(events, event)
			if filter.Limit > 0 && len(events) >= filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return events, nil
}

// Purge implements Purger.
func (s *BadgerStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	var keys [][]byte
	cutoff := badgerKey(olderThan, "")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= string(cutoff) {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired audit events: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete audit event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("commit audit purge: %w", err)
	}
	return int64(len(keys)), nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
