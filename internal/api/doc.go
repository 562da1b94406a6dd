// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package api serves the local admin HTTP API.
//
// Routes:
//
//	GET  /healthz                      liveness and loop health
//	GET  /metrics                      Prometheus exposition
//	GET  /api/v1/status                current lock status
//	GET  /api/v1/events                journal query
//	GET  /api/v1/events/{id}           one journal event
//	POST /api/v1/unlock                admin unlock (token)
//	POST /api/v1/bypass                report a bypass attempt (token)
//	POST /api/v1/violations/reset      reset escalation (token)
//
// Every /api/v1 route is rate limited per client IP with httprate. The
// mutating routes require the admin token, either as a bearer token or in
// X-Vigil-Token; repeated failures lock the client out. Responses use a
// common envelope:
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"..."}}
//	{"status":"error","error":{"code":"...","message":"..."},"metadata":{...}}
package api
