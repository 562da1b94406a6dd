// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/osactions"
)

// runLoop enforces the lock until it expires, is unlocked, or ctx ends.
func (c *Controller) runLoop(ctx context.Context, gen uint64) {
	log := logging.Ctx(ctx)
	log.Info().
		Dur("tick", c.enf.TickInterval).
		Int("workers", c.enf.Workers).
		Msg("Enforcement loop started")
	defer log.Info().Msg("Enforcement loop stopped")

	if !c.engage(ctx, gen) {
		return
	}

	ticker := c.clock.NewTicker(c.enf.TickInterval)
	defer ticker.Stop()

	for {
		remaining, stale := c.remaining(gen)
		if stale {
			return
		}
		if remaining <= 0 {
			if c.unlock(ctx, UnlockExpired, gen) {
				return
			}
		} else {
			c.enforceTick(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}

// engage applies the network restrictions if the loop of generation gen
// still owns the lock. It holds c.mu so an Unlock cannot interleave and be
// followed by a late lockNetwork.
func (c *Controller) engage(ctx context.Context, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loopGen || !c.state.locked {
		return false
	}
	c.lockNetwork(ctx)
	return true
}

// actionContext bounds a single OS call by ActionTimeout.
func (c *Controller) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.enf.ActionTimeout)
}

// remaining reports the time left on the lock. stale is true when the loop
// of generation gen no longer owns the lock.
func (c *Controller) remaining(gen uint64) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loopGen || !c.state.locked {
		return 0, true
	}
	left := c.state.end.Sub(c.clock.Now())
	metrics.RecordLockState(true, c.state.count, left)
	return left, false
}

// enforceTick lists processes once and runs the kill scans on a bounded
// errgroup, waiting for all of them. The listing and every kill get their
// own ActionTimeout.
func (c *Controller) enforceTick(ctx context.Context) {
	started := time.Now()
	defer func() { metrics.RecordTick(time.Since(started)) }()

	lctx, cancel := c.actionContext(ctx)
	procs, err := c.actions.ListProcesses(lctx, osactions.NamesOnly())
	cancel()
	if err != nil {
		metrics.RecordOSActionError("list_processes")
		c.logger.Warn().Err(err).Msg("Process listing failed")
		if len(procs) == 0 {
			return
		}
	}

	var g errgroup.Group
	g.SetLimit(c.enf.Workers)
	g.Go(func() error {
		c.killMatching(ctx, procs, c.browsers, c.enf.ClearBrowserCache)
		return nil
	})
	if c.enf.RestrictShell {
		g.Go(func() error {
			c.killMatching(ctx, procs, c.shell, false)
			return nil
		})
		g.Go(func() error {
			c.killMatching(ctx, procs, c.tools, false)
			return nil
		})
	}
	_ = g.Wait()
}

// killMatching kills every listed process whose name is in targets. Each
// process is handled on its own; one failure does not stop the scan.
func (c *Controller) killMatching(ctx context.Context, procs []osactions.Process, targets map[string]struct{}, clearCache bool) {
	for _, p := range procs {
		if ctx.Err() != nil {
			return
		}
		name := strings.ToLower(p.Name)
		if _, ok := targets[name]; !ok {
			continue
		}
		if c.wasKilled(p.PID) {
			continue
		}
		if clearCache && c.markCleared(name) {
			cctx, cancel := c.actionContext(ctx)
			err := c.actions.ClearBrowserCache(cctx, name)
			cancel()
			if err != nil {
				metrics.RecordOSActionError("clear_browser_cache")
				c.logger.Warn().Err(err).Str("browser", name).Msg("Browser cache clear failed")
			}
		}

		kctx, cancel := c.actionContext(ctx)
		err := c.actions.KillProcess(kctx, p.PID)
		cancel()
		switch {
		case err == nil:
			c.markKilled(p.PID)
			metrics.RecordKill(name)
			c.logger.Debug().Int32("pid", p.PID).Str("name", p.Name).Msg("Process terminated")
		case errors.Is(err, osactions.ErrNoSuchProcess):
			c.markKilled(p.PID)
		case errors.Is(err, osactions.ErrAccessDenied):
			metrics.RecordOSActionError("kill_process")
			c.logger.Debug().Int32("pid", p.PID).Str("name", p.Name).Msg("Access denied, skipping process")
		default:
			metrics.RecordOSActionError("kill_process")
			c.logger.Warn().Err(err).Int32("pid", p.PID).Str("name", p.Name).Msg("Process kill failed")
		}
	}
}

// lockNetwork disables the adapters and adds the block-all rule. Each call
// gets its own ActionTimeout.
func (c *Controller) lockNetwork(ctx context.Context) {
	for _, adapter := range c.enf.NetworkAdapters {
		actx, cancel := c.actionContext(ctx)
		err := c.actions.SetNetworkAdapterEnabled(actx, adapter, false)
		cancel()
		if err != nil {
			metrics.RecordOSActionError("disable_adapter")
			c.logger.Warn().Err(err).Str("adapter", adapter).Msg("Failed to disable network adapter")
		}
	}
	if c.enf.FirewallRule == "" {
		return
	}
	actx, cancel := c.actionContext(ctx)
	defer cancel()
	if err := c.actions.AddBlockAllFirewallRule(actx, c.enf.FirewallRule); err != nil {
		metrics.RecordOSActionError("add_firewall_rule")
		c.logger.Warn().Err(err).Str("rule", c.enf.FirewallRule).Msg("Failed to add firewall rule")
	}
}

// restoreSystem lifts the restrictions. The network goes first so a slow
// process listing cannot leave the machine offline.
func (c *Controller) restoreSystem(ctx context.Context) {
	c.releaseNetwork(ctx)
	c.ensureShell(ctx)
}

// releaseNetwork removes the block-all rule and re-enables the adapters.
func (c *Controller) releaseNetwork(ctx context.Context) {
	if c.enf.FirewallRule != "" {
		actx, cancel := c.actionContext(ctx)
		err := c.actions.RemoveFirewallRule(actx, c.enf.FirewallRule)
		cancel()
		if err != nil {
			metrics.RecordOSActionError("remove_firewall_rule")
			c.logger.Warn().Err(err).Str("rule", c.enf.FirewallRule).Msg("Failed to remove firewall rule")
		}
	}
	for _, adapter := range c.enf.NetworkAdapters {
		actx, cancel := c.actionContext(ctx)
		err := c.actions.SetNetworkAdapterEnabled(actx, adapter, true)
		cancel()
		if err != nil {
			metrics.RecordOSActionError("enable_adapter")
			c.logger.Warn().Err(err).Str("adapter", adapter).Msg("Failed to enable network adapter")
		}
	}
}

// ensureShell restores the desktop shell unless it is already running.
func (c *Controller) ensureShell(ctx context.Context) {
	lctx, cancel := c.actionContext(ctx)
	procs, err := c.actions.ListProcesses(lctx, osactions.NamesOnly())
	cancel()
	if err == nil {
		for _, p := range procs {
			if _, ok := c.shell[strings.ToLower(p.Name)]; ok {
				return
			}
		}
	}

	rctx, cancel := c.actionContext(ctx)
	defer cancel()
	if err := c.actions.RestoreShell(rctx); err != nil {
		metrics.RecordOSActionError("restore_shell")
		c.logger.Warn().Err(err).Msg("Failed to restore shell")
	}
}

func (c *Controller) wasKilled(pid int32) bool {
	c.memoMu.Lock()
	defer c.memoMu.Unlock()
	_, ok := c.killed[pid]
	return ok
}

func (c *Controller) markKilled(pid int32) {
	c.memoMu.Lock()
	defer c.memoMu.Unlock()
	c.killed[pid] = struct{}{}
}

// markCleared reports whether browser had not been cleared yet this episode.
func (c *Controller) markCleared(browser string) bool {
	c.memoMu.Lock()
	defer c.memoMu.Unlock()
	if _, ok := c.cleared[browser]; ok {
		return false
	}
	c.cleared[browser] = struct{}{}
	return true
}

func (c *Controller) resetMemo() {
	c.memoMu.Lock()
	defer c.memoMu.Unlock()
	clear(c.killed)
	clear(c.cleared)
}
