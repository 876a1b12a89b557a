// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package services

import "context"

// Runner is satisfied by *audit.Journal.
type Runner interface {
	Run(ctx context.Context) error
}

// JournalSyncService supervises the audit journal's periodic flush loop.
//
// The loop drains the buffer one last time when it is stopped, so the
// supervisor's shutdown timeout must exceed the journal's drain timeout.
type JournalSyncService struct {
	journal Runner
}

// NewJournalSyncService wraps journal.
func NewJournalSyncService(journal Runner) *JournalSyncService {
	return &JournalSyncService{journal: journal}
}

// Serve implements suture.Service.
func (s *JournalSyncService) Serve(ctx context.Context) error {
	return s.journal.Run(ctx)
}

// String implements fmt.Stringer for suture's event log.
func (s *JournalSyncService) String() string {
	return "audit-sync"
}
