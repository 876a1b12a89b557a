// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package audit

import (
	"context"

	"github.com/tomtom215/innledger/internal/metrics"
)

// Trail returns the events matching filter, newest first. When the store
// cannot be read, the same filter is applied to the local buffer instead;
// that degraded result misses anything already flushed. Trail never fails.
func (j *Journal) Trail(ctx context.Context, filter Filter) []Event {
	events, err := j.store.Query(ctx, filter)
	if err == nil {
		return events
	}

	metrics.AuditReadFallbacks.Inc()
	j.reporter.Report(ctx, Report{
		Component: componentAnalytic,
		Message:   "Audit store query failed, serving from local buffer",
		Severity:  SeverityWarning,
		Payload:   map[string]any{"error": err.Error()},
	})
	return j.bufferTrail(&filter)
}

// bufferTrail filters the buffered events, newest first.
func (j *Journal) bufferTrail(filter *Filter) []Event {
	buffered := j.buf.snapshot()
	out := make([]Event, 0, len(buffered))
	for i := len(buffered) - 1; i >= 0; i-- {
		if !filter.Matches(&buffered[i]) {
			continue
		}
		out = append(out, buffered[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Stats aggregates the trail over a time range.
type Stats struct {
	TotalEvents    int            `json:"total_events"`
	EventsByAction map[string]int `json:"events_by_action"`
	EventsByEntity map[string]int `json:"events_by_entity"`
	EventsByUser   map[string]int `json:"events_by_user"`
	SuccessRate    float64        `json:"success_rate"`
	CriticalEvents int            `json:"critical_events"`
}

// Statistics counts the events in r by action, entity type and actor.
// SuccessRate is a percentage and is 100 for an empty range.
func (j *Journal) Statistics(ctx context.Context, r TimeRange) Stats {
	return computeStats(j.Trail(ctx, FilterForRange(r)))
}

func computeStats(events []Event) Stats {
	stats := Stats{
		TotalEvents:    len(events),
		EventsByAction: make(map[string]int),
		EventsByEntity: make(map[string]int),
		EventsByUser:   make(map[string]int),
	}

	successes := 0
	for i := range events {
		e := &events[i]
		stats.EventsByAction[string(e.Action)]++
		stats.EventsByEntity[string(e.EntityType)]++
		stats.EventsByUser[e.actor()]++
		if e.Result == ResultSuccess {
			successes++
		}
		if IsCritical(e.Action, e.EntityType) {
			stats.CriticalEvents++
		}
	}

	stats.SuccessRate = percent(successes, len(events), 100)
	return stats
}

// percent returns part/total*100, or empty when total is zero.
func percent(part, total int, empty float64) float64 {
	if total == 0 {
		return empty
	}
	return float64(part) / float64(total) * 100
}

// Compliance thresholds for recommendations.
const (
	// MaxFailureRate is the failure percentage above which a report flags
	// elevated failures.
	MaxFailureRate = 10.0

	// MinDistinctActors is the number of distinct actors below which a report
	// flags missing segregation of duties.
	MinDistinctActors = 2
)

// Recommendation texts, in the order they are evaluated.
const (
	RecommendHighFailureRate  = "High failure rate detected. Review failed operations and system stability."
	RecommendFewActors        = "Fewer than two distinct users recorded. Verify segregation of duties."
	RecommendNoCriticalEvents = "No critical operations recorded. Verify audit coverage of payments, fiscal and settings changes."
)

// ComplianceReport summarizes audit coverage and risk indicators for a period.
type ComplianceReport struct {
	Period           TimeRange      `json:"period"`
	TotalEvents      int            `json:"total_events"`
	AuditCoverage    float64        `json:"audit_coverage"`
	SecurityEvents   int            `json:"security_events"`
	DataChanges      int            `json:"data_changes"`
	FailedOperations int            `json:"failed_operations"`
	UserActivities   map[string]int `json:"user_activities"`
	Recommendations  []string       `json:"recommendations"`
}

// ComplianceReport derives coverage and risk indicators for period.
// AuditCoverage is the percentage of critical events and is 0 when the period
// is empty.
func (j *Journal) ComplianceReport(ctx context.Context, period TimeRange) ComplianceReport {
	return buildComplianceReport(period, j.Trail(ctx, FilterForRange(period)))
}

func buildComplianceReport(period TimeRange, events []Event) ComplianceReport {
	report := ComplianceReport{
		Period:          period,
		TotalEvents:     len(events),
		UserActivities:  make(map[string]int),
		Recommendations: []string{},
	}

	critical := 0
	for i := range events {
		e := &events[i]
		switch e.Action {
		case ActionLogin, ActionLogout, ActionPasswordChange, ActionSettingsChanged:
			report.SecurityEvents++
		case ActionCreate, ActionUpdate, ActionDelete:
			report.DataChanges++
		}
		if e.Result == ResultFailure {
			report.FailedOperations++
		}
		if IsCritical(e.Action, e.EntityType) {
			critical++
		}
		report.UserActivities[e.actor()]++
	}

	report.AuditCoverage = percent(critical, len(events), 0)

	if percent(report.FailedOperations, len(events), 0) > MaxFailureRate {
		report.Recommendations = append(report.Recommendations, RecommendHighFailureRate)
	}
	if len(report.UserActivities) < MinDistinctActors {
		report.Recommendations = append(report.Recommendations, RecommendFewActors)
	}
	if critical == 0 {
		report.Recommendations = append(report.Recommendations, RecommendNoCriticalEvents)
	}
	return report
}
