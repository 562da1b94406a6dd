// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/middleware"
)

// RouterConfig configures the admin router.
type RouterConfig struct {
	// RateLimit is the number of /api/v1 requests per client per
	// RateWindow. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Router wires handlers, authentication and middleware.
type Router struct {
	config  RouterConfig
	handler *Handler
	auth    *auth.TokenAuthenticator
	lockout *auth.Lockout
	journal Journal
}

// NewRouter creates a Router.
func NewRouter(config RouterConfig, handler *Handler, authenticator *auth.TokenAuthenticator, lockout *auth.Lockout) *Router {
	if config.RateWindow <= 0 {
		config.RateWindow = time.Minute
	}
	return &Router{
		config:  config,
		handler: handler,
		auth:    authenticator,
		lockout: lockout,
		journal: handler.journal,
	}
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)

	r.Get("/healthz", rt.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rt.config.RateLimit > 0 {
			r.Use(httprate.Limit(
				rt.config.RateLimit,
				rt.config.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
				}),
			))
		}

		r.Get("/status", rt.handler.Status)
		r.Get("/events", rt.handler.Events)
		r.Get("/events/{id}", rt.handler.Event)

		r.Group(func(r chi.Router) {
			r.Use(rt.requireToken)
			r.Post("/unlock", rt.handler.Unlock)
			r.Post("/bypass", rt.handler.Bypass)
			r.Post("/violations/reset", rt.handler.ResetViolations)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed", nil)
	})
	return r
}
