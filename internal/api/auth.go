// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/logging"
)

// requireToken rejects requests without a valid admin token. Failures are
// journaled and count towards the client's lockout.
func (rt *Router) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)

		if remaining := rt.lockout.Locked(client); remaining > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			respondError(w, r, http.StatusTooManyRequests, CodeLockedOut,
				"Too many failed attempts, try again later", nil)
			return
		}

		err := rt.auth.Verify(auth.TokenFromRequest(r))
		if errors.Is(err, auth.ErrNotConfigured) {
			respondError(w, r, http.StatusForbidden, CodeForbidden,
				"Admin token is not configured", nil)
			return
		}
		if err != nil {
			route := routeOf(r)
			if rt.journal != nil {
				rt.journal.LogAuthFailure(r.Context(), route, r.RemoteAddr)
			}
			logging.Ctx(r.Context()).Warn().
				Str("client", client).
				Str("route", route).
				Msg("Admin request rejected")

			if d := rt.lockout.RecordFailure(client); d > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="vigil"`)
			respondError(w, r, http.StatusUnauthorized, CodeUnauthorized, err.Error(), nil)
			return
		}

		rt.lockout.RecordSuccess(client)
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
