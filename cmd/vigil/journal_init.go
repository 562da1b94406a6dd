// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/logging"
)

// journalHandle owns the journal logger and its badger store.
type journalHandle struct {
	logger *audit.Logger
	store  *audit.BadgerStore
}

// initJournal opens the event journal. It returns nil when the journal is
// disabled or cannot be opened; the agent runs without it.
func initJournal(cfg *config.Config) *journalHandle {
	if !cfg.Journal.Enabled {
		logging.Info().Msg("Event journal disabled (VIGIL_JOURNAL_ENABLED=false)")
		return nil
	}

	store, err := audit.OpenBadgerStore(cfg.Journal.Path)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Journal.Path).Msg("Failed to open event journal, continuing without it")
		return nil
	}

	journalConfig := audit.DefaultConfig()
	journalConfig.Retention = cfg.Journal.Retention
	journalConfig.BufferSize = cfg.Journal.BufferSize

	logger := audit.NewLogger(store, journalConfig, logging.WithComponent("journal"))
	logging.Info().
		Str("path", cfg.Journal.Path).
		Dur("retention", cfg.Journal.Retention).
		Msg("Event journal opened")
	return &journalHandle{logger: logger, store: store}
}

// close drains queued events and closes the store. Safe on nil.
func (j *journalHandle) close() {
	if j == nil {
		return
	}
	if err := j.logger.Close(); err != nil {
		logging.Err(err).Msg("Error closing journal logger")
	}
	if err := j.store.Close(); err != nil {
		logging.Err(err).Msg("Error closing journal store")
	}
}
