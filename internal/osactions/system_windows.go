// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

//go:build windows

package osactions

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// browserCaches is keyed by image name without ".exe".
var browserCaches = map[string][]string{
	"chrome":  {"AppData/Local/Google/Chrome/User Data/*/Cache", "AppData/Local/Google/Chrome/User Data/*/Code Cache"},
	"msedge":  {"AppData/Local/Microsoft/Edge/User Data/*/Cache", "AppData/Local/Microsoft/Edge/User Data/*/Code Cache"},
	"brave":   {"AppData/Local/BraveSoftware/Brave-Browser/User Data/*/Cache"},
	"opera":   {"AppData/Local/Opera Software/Opera Stable/Cache"},
	"firefox": {"AppData/Local/Mozilla/Firefox/Profiles/*/cache2"},
}

// SetNetworkAdapterEnabled toggles an interface with netsh.
func (s *System) SetNetworkAdapterEnabled(ctx context.Context, name string, enabled bool) error {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return s.run(ctx, "netsh", "interface", "set", "interface", "name="+name, "admin="+state)
}

// AddBlockAllFirewallRule adds inbound and outbound block rules named name.
// Existing rules with that name are deleted first, so repeated calls leave
// exactly one pair.
func (s *System) AddBlockAllFirewallRule(ctx context.Context, name string) error {
	// netsh fails with "No rules match" when there is nothing to delete.
	if err := s.RemoveFirewallRule(ctx, name); err != nil {
		s.logger.Debug().Err(err).Str("rule", name).Msg("no existing firewall rule to replace")
	}
	for _, dir := range []string{"in", "out"} {
		if err := s.run(ctx, "netsh", "advfirewall", "firewall", "add", "rule",
			"name="+name, "dir="+dir, "action=block", "enable=yes"); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFirewallRule deletes every rule named name.
func (s *System) RemoveFirewallRule(ctx context.Context, name string) error {
	return s.run(ctx, "netsh", "advfirewall", "firewall", "delete", "rule", "name="+name)
}

// LaunchDetached starts command in a new process group without a console,
// so it outlives the agent.
func (s *System) LaunchDetached(_ context.Context, command string, args ...string) error {
	// Not CommandContext: the child must survive the request context.
	cmd := exec.Command(command, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", command, err)
	}
	return cmd.Process.Release()
}

// RestoreShell relaunches the desktop shell.
func (s *System) RestoreShell(ctx context.Context) error {
	return s.LaunchDetached(ctx, s.shell)
}
