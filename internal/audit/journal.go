// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/innledger/internal/logging"
	"github.com/tomtom215/innledger/internal/metrics"
)

const (
	// DefaultFlushInterval is the period of the background flush.
	DefaultFlushInterval = 30 * time.Second

	// DefaultDrainTimeout bounds the final flush performed on shutdown.
	DefaultDrainTimeout = 5 * time.Second

	componentRecorder = "audit.recorder"
	componentSync     = "audit.sync"
	componentAnalytic = "audit.analytics"
)

// Options configures a Journal.
type Options struct {
	// BufferCapacity bounds the local buffer. Default: 1000.
	BufferCapacity int

	// FlushInterval is the period of the background flush. Default: 30s.
	FlushInterval time.Duration

	// DrainTimeout bounds the final flush when Run stops. Default: 5s.
	DrainTimeout time.Duration

	// Location is used for hour-of-day analytics. Default: time.Local.
	Location *time.Location

	// Reporter receives failures. Default: LogReporter.
	Reporter Reporter

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		BufferCapacity: DefaultBufferCapacity,
		FlushInterval:  DefaultFlushInterval,
		DrainTimeout:   DefaultDrainTimeout,
		Location:       time.Local,
		Reporter:       LogReporter{},
		Now:            time.Now,
	}
}

// Actor is the identity attached to recorded events.
type Actor struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Journal is the audit trail: it records events into a bounded buffer,
// persists them in the background, and answers analytics queries.
//
// Exactly one Journal should exist per process. It is created by the
// composition root and handed to every caller.
type Journal struct {
	store    Store
	reporter Reporter
	buf      *buffer
	opts     Options

	actorMu sync.RWMutex
	actor   Actor

	// flushMu serializes Flush so snapshot-and-clear is never interleaved.
	flushMu sync.Mutex
	kick    chan struct{}

	evictLog rate.Sometimes
}

// NewJournal creates a journal writing to store. Zero-valued options take
// their defaults. Run must be started for background persistence.
func NewJournal(store Store, opts Options) (*Journal, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	defaults := DefaultOptions()
	if opts.BufferCapacity <= 0 {
		opts.BufferCapacity = defaults.BufferCapacity
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaults.FlushInterval
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaults.DrainTimeout
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.Reporter == nil {
		opts.Reporter = defaults.Reporter
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &Journal{
		store:    store,
		reporter: opts.Reporter,
		buf:      newBuffer(opts.BufferCapacity),
		opts:     opts,
		kick:     make(chan struct{}, 1),
		evictLog: rate.Sometimes{First: 1, Interval: time.Minute},
	}, nil
}

// Record appends one event to the buffer. It only touches memory and never
// fails; critical operations additionally request an immediate flush.
func (j *Journal) Record(ctx context.Context, entry Entry) {
	if ctx == nil {
		ctx = context.Background()
	}

	event := j.newEvent(ctx, &entry)

	evicted, length := j.buf.push(event)
	metrics.AuditEventsRecorded.WithLabelValues(string(event.Action), string(event.Result)).Inc()
	metrics.AuditBufferEvents.Set(float64(length))

	if evicted > 0 {
		metrics.AuditEventsEvicted.Add(float64(evicted))
		j.evictLog.Do(func() {
			logging.Debug().
				Str("component", componentRecorder).
				Int("evicted", evicted).
				Int("capacity", j.opts.BufferCapacity).
				Msg("Audit buffer full, evicted oldest events")
		})
	}

	if IsCritical(event.Action, event.EntityType) {
		j.requestFlush()
	}
}

// newEvent builds the immutable event for entry. Strings are made valid
// UTF-8 and snapshots are copied.
func (j *Journal) newEvent(ctx context.Context, entry *Entry) Event {
	result := entry.Result
	if result == "" {
		result = ResultSuccess
	}
	errMsg := entry.ErrorMessage
	if result == ResultSuccess {
		errMsg = ""
	}

	oldValues := cleanValues(entry.OldValues)
	newValues := cleanValues(entry.NewValues)

	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}

	actor := j.CurrentUser()
	client := ClientFromContext(ctx)

	return Event{
		ID:            newEventID(),
		Timestamp:     j.Now(),
		UserID:        cleanString(actor.UserID),
		SessionID:     cleanString(actor.SessionID),
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      cleanString(entry.EntityID),
		OldValues:     oldValues,
		NewValues:     newValues,
		ChangedFields: ChangedFields(oldValues, newValues),
		IPAddress:     cleanString(client.IPAddress),
		UserAgent:     cleanString(client.UserAgent),
		Result:        result,
		ErrorMessage:  cleanString(errMsg),
		Metadata:      cleanValues(entry.Metadata),
		CorrelationID: cleanString(correlationID),
	}
}

// newEventID returns a time-ordered unique ID.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SetCurrentUser attaches userID and sessionID to subsequent events and
// records a login for that identity.
func (j *Journal) SetCurrentUser(ctx context.Context, userID, sessionID string) {
	j.actorMu.Lock()
	j.actor = Actor{UserID: userID, SessionID: sessionID}
	j.actorMu.Unlock()

	j.Record(ctx, Entry{
		Action:     ActionLogin,
		EntityType: EntityUser,
		EntityID:   userID,
	})
}

// ClearCurrentUser records a logout for the current actor, if any, and then
// detaches it from subsequent events.
func (j *Journal) ClearCurrentUser(ctx context.Context) {
	actor := j.CurrentUser()
	if actor.UserID == "" {
		return
	}

	j.Record(ctx, Entry{
		Action:     ActionLogout,
		EntityType: EntityUser,
		EntityID:   actor.UserID,
	})

	j.actorMu.Lock()
	j.actor = Actor{}
	j.actorMu.Unlock()
}

// CurrentUser returns the actor attached to new events.
func (j *Journal) CurrentUser() Actor {
	j.actorMu.RLock()
	defer j.actorMu.RUnlock()
	return j.actor
}

// Now returns the journal clock's current time in UTC.
func (j *Journal) Now() time.Time {
	return j.opts.Now().UTC()
}

// Buffered returns a copy of the events awaiting persistence, oldest first.
func (j *Journal) Buffered() []Event {
	return j.buf.snapshot()
}

// requestFlush asks the sync worker for an out-of-band flush. Requests made
// while one is already pending coalesce.
func (j *Journal) requestFlush() {
	select {
	case j.kick <- struct{}{}:
	default:
	}
}

// Client is the best-effort origin of a recorded operation.
type Client struct {
	IPAddress string
	UserAgent string
}

type clientKey struct{}

// ContextWithClient attaches client metadata for events recorded with ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the client attached to ctx. Unknown fields are
// reported as UnknownClient.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	if c.IPAddress == "" {
		c.IPAddress = UnknownClient
	}
	if c.UserAgent == "" {
		c.UserAgent = UnknownClient
	}
	return c
}
