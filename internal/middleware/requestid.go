// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/innledger/internal/logging"
)

// Tracing headers.
const (
	RequestIDHeader     = "X-Request-ID"
	CorrelationIDHeader = "X-Correlation-ID"
)

// maxHeaderIDLen bounds caller-supplied identifiers.
const maxHeaderIDLen = 128

// RequestID assigns every request a request ID and a correlation ID.
//
// Both are taken from the incoming headers when present (an upstream proxy or
// the front-desk client may already have set them) and generated otherwise.
// They are echoed in the response and stored in the context, where the
// logging package and the audit journal pick them up.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := headerID(r, RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		correlationID := headerID(r, CorrelationIDHeader)
		if correlationID == "" {
			correlationID = logging.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func headerID(r *http.Request, name string) string {
	id := r.Header.Get(name)
	if len(id) > maxHeaderIDLen {
		return ""
	}
	return id
}
