// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"
	"sort"
	"time"
)

// Detection thresholds. A rule fires when a count strictly exceeds its
// threshold: five failures in an hour is tolerated, six is flagged.
const (
	FailureThreshold       = 5
	FailureWindow          = time.Hour
	DeleteBurstThreshold   = 3
	DeleteBurstWindow      = 10 * time.Minute
	BulkGuestViewThreshold = 100
	AfterHoursThreshold    = 10

	// AfterHoursStart and AfterHoursEnd bound the working day. Events with a
	// local hour below the start or above the end are after hours.
	AfterHoursStart = 6
	AfterHoursEnd   = 22

	// SuspiciousLookback and SuspiciousQueryLimit bound the events examined.
	SuspiciousLookback   = 24 * time.Hour
	SuspiciousQueryLimit = 1000
)

// Rule names a per-actor detection rule.
type Rule string

const (
	RuleRepeatedFailures Rule = "repeated_failures"
	RuleDeleteBurst      Rule = "delete_burst"
)

// Risk grades an aggregate pattern.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Pattern names for aggregate findings.
const (
	PatternBulkGuestAccess = "bulk_guest_access"
	PatternAfterHours      = "after_hours_activity"
)

// Finding is one actor flagged by a per-actor rule. Events holds the densest
// window that triggered it, oldest first.
type Finding struct {
	UserID string  `json:"user_id"`
	Rule   Rule    `json:"rule"`
	Count  int     `json:"count"`
	Events []Event `json:"events"`
}

// Pattern is an aggregate finding not attributed to a single actor.
type Pattern struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Risk        Risk   `json:"risk"`
	Count       int    `json:"count"`
}

// SuspiciousActivity is the result of DetectSuspiciousActivity.
type SuspiciousActivity struct {
	SuspiciousEvents []Finding `json:"suspicious_events"`
	Patterns         []Pattern `json:"patterns"`
}

// DetectSuspiciousActivity examines up to SuspiciousQueryLimit events from the
// trailing SuspiciousLookback and applies the fixed detection rules.
func (j *Journal) DetectSuspiciousActivity(ctx context.Context) SuspiciousActivity {
	start := j.opts.Now().Add(-SuspiciousLookback)
	events := j.Trail(ctx, Filter{StartTime: &start, Limit: SuspiciousQueryLimit})
	return detect(events, j.opts.Location)
}

func detect(events []Event, loc *time.Location) SuspiciousActivity {
	if loc == nil {
		loc = time.Local
	}

	failures := make(map[string][]Event)
	deletes := make(map[string][]Event)
	guestViews, afterHours := 0, 0

	for i := range events {
		e := &events[i]
		if e.Result == ResultFailure {
			failures[e.actor()] = append(failures[e.actor()], *e)
		}
		if e.Action == ActionDelete {
			deletes[e.actor()] = append(deletes[e.actor()], *e)
		}
		if e.Action == ActionView && e.EntityType == EntityGuest {
			guestViews++
		}
		if hour := e.Timestamp.In(loc).Hour(); hour < AfterHoursStart || hour > AfterHoursEnd {
			afterHours++
		}
	}

	result := SuspiciousActivity{
		SuspiciousEvents: []Finding{},
		Patterns:         []Pattern{},
	}
	result.SuspiciousEvents = append(result.SuspiciousEvents,
		flagActors(failures, RuleRepeatedFailures, FailureWindow, FailureThreshold)...)
	result.SuspiciousEvents = append(result.SuspiciousEvents,
		flagActors(deletes, RuleDeleteBurst, DeleteBurstWindow, DeleteBurstThreshold)...)

	if guestViews > BulkGuestViewThreshold {
		result.Patterns = append(result.Patterns, Pattern{
			Name:        PatternBulkGuestAccess,
			Description: "Unusually many guest records viewed",
			Risk:        RiskMedium,
			Count:       guestViews,
		})
	}
	if afterHours > AfterHoursThreshold {
		result.Patterns = append(result.Patterns, Pattern{
			Name:        PatternAfterHours,
			Description: "Significant activity outside working hours",
			Risk:        RiskLow,
			Count:       afterHours,
		})
	}
	return result
}

// flagActors returns a finding for each actor whose densest window holds
// more than threshold events. Findings are ordered by actor.
func flagActors(byActor map[string][]Event, rule Rule, window time.Duration, threshold int) []Finding {
	actors := make([]string, 0, len(byActor))
	for actor := range byActor {
		actors = append(actors, actor)
	}
	sort.Strings(actors)

	var findings []Finding
	for _, actor := range actors {
		events := byActor[actor]
		if len(events) <= threshold {
			continue
		}
		if burst := densestWindow(events, window); len(burst) > threshold {
			findings = append(findings, Finding{
				UserID: actor,
				Rule:   rule,
				Count:  len(burst),
				Events: burst,
			})
		}
	}
	return findings
}

// densestWindow returns the largest run of events whose timestamps all fall
// within window of each other, inclusive. events is sorted in place.
func densestWindow(events []Event, window time.Duration) []Event {
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Timestamp.Before(events[b].Timestamp)
	})

	bestLo, bestHi := 0, 0
	lo := 0
	for hi := range events {
		for events[hi].Timestamp.Sub(events[lo].Timestamp) > window {
			lo++
		}
		if hi+1-lo > bestHi-bestLo {
			bestLo, bestHi = lo, hi+1
		}
	}
	return events[bestLo:bestHi]
}
