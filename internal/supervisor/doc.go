// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

/*
Package supervisor provides process supervision for Innledger using suture v4.

# Overview

Long-running services are organized into two layers:

	RootSupervisor ("innledger")
	├── DataSupervisor ("data-layer")
	│   ├── JournalSyncService
	│   └── RetentionService (if AUDIT_RETENTION_DAYS > 0)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog into the zerolog-backed slog handler from the
logging package.

# Usage Example

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddDataService(services.NewJournalSyncService(journal))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Shutdown

Cancelling the context stops every service. The journal performs one final
flush bounded by its drain timeout, so ShutdownTimeout must be larger.
*/
package supervisor
