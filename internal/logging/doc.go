// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package logging provides the zerolog-based structured logging used across Vigil.
//
// A single global logger is configured once at startup from the logging section
// of the agent configuration. Components never reach for the global directly in
// hot paths; they receive a child logger built with WithComponent and keep it.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	log := logging.WithComponent("lockdown")
//	log.Info().Dur("duration", d).Msg("lock engaged")
//
// # Lock Episodes
//
// Every lock episode carries a short episode ID in its context so that the
// enforcement loop, the journal and the notifier lines of one lock can be
// grepped together:
//
//	ctx = logging.ContextWithEpisodeID(ctx, logging.GenerateEpisodeID())
//	logging.Ctx(ctx).Warn().Msg("browser killed")
//
// # Supervisor Integration
//
// Suture reports through log/slog. NewSlogLogger returns an *slog.Logger
// backed by the global zerolog logger so supervisor restarts and backoff
// land in the same stream.
package logging
