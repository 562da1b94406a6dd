// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package osactions is the boundary between the lockdown controller and the
// operating system.
//
// Actions is implemented by System, which enumerates and kills processes
// through gopsutil and drives netsh on Windows, and by Recorder, an
// in-memory fake for tests. On platforms without netsh the network,
// firewall and shell operations are logged no-ops so the controller runs
// unchanged everywhere.
//
// Every method is idempotent from the caller's point of view: disabling an
// adapter twice, removing a rule that does not exist, or killing a process
// that already exited are reported as errors the caller may log and ignore.
package osactions

import (
	"context"
	"errors"
)

// Sentinel errors. Backends wrap them so callers classify with errors.Is.
var (
	ErrNoSuchProcess = errors.New("no such process")
	ErrAccessDenied  = errors.New("access denied")
	ErrUnsupported   = errors.New("operation not supported on this platform")
)

// Process is one entry of a process listing.
type Process struct {
	PID         int32
	Name        string
	CommandLine string
}

// ListOption adjusts a process listing.
type ListOption func(*ListConfig)

// ListConfig is the result of applying ListOptions.
type ListConfig struct {
	// NamesOnly skips reading command lines. Process.CommandLine is empty.
	NamesOnly bool
}

// NamesOnly lists PIDs and image names only. The enforcement scan runs
// every tick and matches on names, so it uses this mode.
func NamesOnly() ListOption {
	return func(c *ListConfig) { c.NamesOnly = true }
}

// NewListConfig applies opts to the default full listing.
func NewListConfig(opts ...ListOption) ListConfig {
	var c ListConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Actions are the OS operations a lockdown needs.
type Actions interface {
	SetNetworkAdapterEnabled(ctx context.Context, name string, enabled bool) error
	AddBlockAllFirewallRule(ctx context.Context, name string) error
	RemoveFirewallRule(ctx context.Context, name string) error

	// ListProcesses returns the processes it could read. Entries whose name
	// cannot be read are omitted rather than failing the listing. Command
	// lines are included unless NamesOnly is given.
	ListProcesses(ctx context.Context, opts ...ListOption) ([]Process, error)
	KillProcess(ctx context.Context, pid int32) error

	LaunchDetached(ctx context.Context, command string, args ...string) error
	ClearBrowserCache(ctx context.Context, browser string) error
	RestoreShell(ctx context.Context) error
}
