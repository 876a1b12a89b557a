// Innledger - Hotel Operations Audit Journal
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/innledger

package middleware

import (
	"net"
	"net/http"

	"github.com/tomtom215/innledger/internal/audit"
)

// maxUserAgentLen bounds the stored User-Agent.
const maxUserAgentLen = 512

// ClientInfo stores the caller's IP address and User-Agent in the request
// context so audit events recorded while serving the request carry them.
//
// Place it after chi's RealIP middleware when running behind a proxy.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.ContextWithClient(r.Context(), audit.Client{
			IPAddress: remoteIP(r.RemoteAddr),
			UserAgent: audit.TruncateUTF8(r.UserAgent(), maxUserAgentLen),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// remoteIP strips the port from addr when there is one.
func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
