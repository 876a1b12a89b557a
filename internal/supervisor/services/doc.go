// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package services provides suture.Service wrappers for Innledger components.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve method and names itself through fmt.Stringer for the supervisor's
event log.

# Available Services

  - JournalSyncService: the audit journal's flush loop (data layer)
  - RetentionService: periodic purge of expired audit events (data layer)
  - HTTPServerService: *http.Server with graceful shutdown (api layer)

The wrappers depend on small interfaces (Runner, Purger, HTTPServer) rather
than concrete types so they can be tested with fakes.
*/
package services
