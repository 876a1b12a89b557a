// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/innledger/internal/audit"
	"github.com/tomtom215/innledger/internal/validation"
)

// Trail limits for GET /events and GET /export.
const (
	DefaultTrailLimit = 100
	MaxTrailLimit     = 10000
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ParamError is a malformed query parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// parseTime reads an optional RFC3339 timestamp.
func parseTime(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &ParamError{Param: key, Reason: "expected RFC3339 timestamp"}
	}
	return &t, nil
}

// parseBounds reads start_time and end_time and checks their order.
func parseBounds(q url.Values) (start, end *time.Time, err error) {
	if start, err = parseTime(q, "start_time"); err != nil {
		return nil, nil, err
	}
	if end, err = parseTime(q, "end_time"); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, &ParamError{Param: "end_time", Reason: "before start_time"}
	}
	return start, end, nil
}

// parseTimeRange reads the period for statistics and compliance reports.
func parseTimeRange(r *http.Request) (audit.TimeRange, error) {
	start, end, err := parseBounds(r.URL.Query())
	if err != nil {
		return audit.TimeRange{}, err
	}
	var tr audit.TimeRange
	if start != nil {
		tr.Start = *start
	}
	if end != nil {
		tr.End = *end
	}
	return tr, nil
}

// parseFilter reads trail filters from the query string.
func parseFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	filter := audit.Filter{
		UserID:     q.Get("user_id"),
		EntityType: audit.EntityType(q.Get("entity_type")),
		EntityID:   q.Get("entity_id"),
		Action:     audit.Action(q.Get("action")),
		Result:     audit.Result(q.Get("result")),
		Limit:      DefaultTrailLimit,
	}

	start, end, err := parseBounds(q)
	if err != nil {
		return audit.Filter{}, err
	}
	filter.StartTime, filter.EndTime = start, end

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return audit.Filter{}, &ParamError{Param: "limit", Reason: "expected a positive integer"}
		}
		filter.Limit = min(limit, MaxTrailLimit)
	}

	if verr := validation.ValidateStruct(&filter); verr != nil {
		return audit.Filter{}, verr
	}
	return filter, nil
}

// decodeBody decodes a bounded JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ParamError{Param: "body", Reason: err.Error()}
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}

// respondRequestError maps a parsing or validation failure to a 400.
func respondRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		respondValidation(w, r, verr)
		return
	}
	respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
}
