// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/vigil/internal/api"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/supervisor"
	"github.com/tomtom215/vigil/internal/supervisor/services"
)

// initAdmin builds the admin HTTP server and adds it to the API layer.
func initAdmin(cfg *config.Config, ctrl *lockdown.Controller, journal *journalHandle, version string, tree *supervisor.SupervisorTree) error {
	authenticator, err := auth.NewTokenAuthenticator(cfg.Admin.TokenHash)
	if err != nil {
		return fmt.Errorf("admin token: %w", err)
	}
	if !authenticator.Configured() {
		logging.Warn().Msg("Admin token not configured (VIGIL_ADMIN_TOKEN_HASH): unlock, bypass and reset are refused")
	}

	// A nil *audit.Logger in the interface would not compare equal to nil.
	var apiJournal api.Journal
	if journal != nil {
		apiJournal = journal.logger
	}

	lockout := auth.NewLockout(auth.DefaultLockoutConfig(), nil)
	handler := api.NewHandler(ctrl, apiJournal, version, logging.WithComponent("api"))
	router := api.NewRouter(api.RouterConfig{
		RateLimit:  cfg.Admin.RateLimit,
		RateWindow: time.Minute,
	}, handler, authenticator, lockout)

	server := &http.Server{
		Addr:              cfg.Admin.Listen,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
	tree.AddControlService(services.NewPruneService(lockout, time.Hour, nil, logging.WithComponent("auth")))
	logging.Info().Str("addr", server.Addr).Msg("Admin API added to supervisor tree")
	return nil
}
