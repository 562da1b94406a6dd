// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tomtom215/vigil/internal/cli"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/keystroke"
	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/osactions"
	"github.com/tomtom215/vigil/internal/supervisor"
	"github.com/tomtom215/vigil/internal/supervisor/services"
)

// runAgent wires every component into the supervisor tree and serves it
// until ctx is canceled.
//
//nolint:gocyclo // Sequential initialization steps
func runAgent(ctx context.Context, cfg *config.Config, version string) error {
	logging.Info().
		Str("version", version).
		Str("key_source", cfg.Keys.Source).
		Str("state_file", cfg.Agent.StateFile).
		Bool("journal", cfg.Journal.Enabled).
		Bool("admin_api", cfg.Admin.Enabled).
		Msg("Starting Vigil")

	blocklist, err := cli.LoadBlocklist(cfg.Keywords)
	if err != nil {
		return fmt.Errorf("load blocklist: %w", err)
	}
	logging.Info().Int("keywords", blocklist.Len()).Msg("Blocklist loaded")

	if err := os.MkdirAll(cfg.Agent.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// === EVENT JOURNAL AND NOTIFICATIONS ===

	journal := initJournal(cfg)
	defer journal.close()

	dispatcher := initNotify(cfg)

	// === LOCKDOWN CONTROLLER ===

	opts := []lockdown.Option{
		lockdown.WithPolicy(policyFromConfig(&cfg.Lockdown)),
		lockdown.WithEnforcement(enforcementFromConfig(&cfg.Enforcement)),
	}
	if journal != nil {
		opts = append(opts, lockdown.WithObserver(journal.logger))
	}
	if dispatcher != nil {
		opts = append(opts, lockdown.WithObserver(dispatcher))
	}

	actions := osactions.NewSystem(logging.WithComponent("osactions"),
		osactions.WithShell(cfg.Enforcement.ShellProcess))
	ctrl := lockdown.NewController(
		lockdown.NewFileStore(cfg.Agent.StateFile),
		actions,
		logging.WithComponent("lockdown"),
		opts...,
	)

	// Resume before any key event can arrive.
	status := ctrl.CheckAndReapplyLock(ctx)
	if status.Locked {
		logging.Warn().
			Time("until", status.LockEnd).
			Dur("remaining", status.Remaining).
			Int("violation_count", status.ViolationCount).
			Msg("Resumed persisted lock")
	}

	// === KEY PIPELINE ===

	matcher := keystroke.NewMatcher(blocklist,
		func(ctx context.Context, _ keystroke.MatchResult) {
			ctrl.TriggerViolation(ctx, "keystroke")
		},
		logging.WithComponent("keystroke"),
		keystroke.WithMaxDistance(cfg.Keywords.MaxDistance),
	)
	segmenter := keystroke.NewSegmenter(matcher, cfg.Keywords.BufferSize, logging.WithComponent("keystroke"))

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Input layer
	messaging, err := initNATS(cfg, tree)
	if err != nil {
		return err
	}
	defer messaging.close()

	source, err := initKeySource(cfg, messaging)
	if err != nil {
		return err
	}
	if source != nil {
		tree.AddInputService(services.NewKeystrokeService(source, segmenter, logging.WithComponent("keystroke")))
		logging.Info().Str("source", source.String()).Msg("Key pipeline added to supervisor tree")
	} else {
		logging.Warn().Msg("No key source configured, locks come from bypass reports and the admin API only")
	}
	initBypassListener(cfg, messaging, ctrl, tree)

	// Control layer
	tree.AddControlService(services.NewControllerService(ctrl, cfg.Supervisor.ShutdownTimeout))
	tree.AddControlService(services.NewDecayService(ctrl, cfg.Lockdown.DecayCheckInterval, nil,
		logging.WithComponent("decay")))
	if journal != nil {
		tree.AddControlService(services.NewRetentionService(journal.logger, journal.store.RunGC,
			0, nil, logging.WithComponent("journal")))
	}
	if dispatcher != nil {
		tree.AddControlService(dispatcher)
	}

	// API layer
	if cfg.Admin.Enabled {
		if err := initAdmin(cfg, ctrl, journal, version, tree); err != nil {
			return err
		}
	} else {
		logging.Info().Msg("Admin API disabled (VIGIL_ADMIN_ENABLED=false)")
	}

	// === START SUPERVISOR TREE ===

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Vigil stopped")
	return nil
}

func policyFromConfig(c *config.LockdownConfig) lockdown.Policy {
	return lockdown.Policy{
		Escalation:     append([]time.Duration(nil), c.Escalation...),
		MaxDuration:    c.MaxDuration,
		BypassDuration: c.BypassDuration,
		DecayAfter:     c.DecayAfter,
	}
}

func enforcementFromConfig(c *config.EnforcementConfig) lockdown.Enforcement {
	return lockdown.Enforcement{
		TickInterval:      c.TickInterval,
		Workers:           c.Workers,
		Browsers:          c.Browsers,
		RestrictShell:     c.RestrictShell,
		ShellProcess:      c.ShellProcess,
		BlockedTools:      c.BlockedTools,
		NetworkAdapters:   c.NetworkAdapters,
		FirewallRule:      c.FirewallRule,
		ClearBrowserCache: c.ClearBrowserCache,
		ActionTimeout:     c.ActionTimeout,
	}
}
