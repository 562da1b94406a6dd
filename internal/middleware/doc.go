// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package middleware provides HTTP middleware for the admin server.
//
//   - RequestID: propagates or generates X-Request-ID and stores it in the
//     request context for logging and the event journal
//   - Metrics: counts requests by method, route pattern and status
//   - AccessLog: one debug line per request on the context logger
//
// All middleware has the func(http.Handler) http.Handler shape used by chi.
package middleware
