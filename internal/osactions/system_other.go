// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

//go:build !windows

package osactions

import (
	"context"
	"fmt"
	"os/exec"
)

// browserCaches is keyed by image name without ".exe".
var browserCaches = map[string][]string{
	"chrome":  {".cache/google-chrome/*/Cache", ".cache/google-chrome/*/Code Cache"},
	"msedge":  {".cache/microsoft-edge/*/Cache"},
	"brave":   {".cache/BraveSoftware/Brave-Browser/*/Cache"},
	"opera":   {".cache/opera/Cache"},
	"firefox": {".cache/mozilla/firefox/*/cache2"},
}

// SetNetworkAdapterEnabled is a logged no-op outside Windows.
func (s *System) SetNetworkAdapterEnabled(_ context.Context, name string, enabled bool) error {
	s.logger.Info().Str("adapter", name).Bool("enabled", enabled).Msg("network adapter toggle skipped on this platform")
	return nil
}

// AddBlockAllFirewallRule is a logged no-op outside Windows.
func (s *System) AddBlockAllFirewallRule(_ context.Context, name string) error {
	s.logger.Info().Str("rule", name).Msg("firewall rule add skipped on this platform")
	return nil
}

// RemoveFirewallRule is a logged no-op outside Windows.
func (s *System) RemoveFirewallRule(_ context.Context, name string) error {
	s.logger.Info().Str("rule", name).Msg("firewall rule removal skipped on this platform")
	return nil
}

// LaunchDetached starts command in its own session.
func (s *System) LaunchDetached(_ context.Context, command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", command, err)
	}
	return cmd.Process.Release()
}

// RestoreShell is a logged no-op outside Windows; desktop sessions there
// are not torn down by a lock.
func (s *System) RestoreShell(_ context.Context) error {
	s.logger.Info().Str("shell", s.shell).Msg("shell restore skipped on this platform")
	return nil
}
