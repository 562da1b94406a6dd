// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import "time"

// Policy holds the escalation and decay rules.
type Policy struct {
	// Escalation is indexed by the violation count before the increment,
	// starting at 1.
	Escalation []time.Duration
	// MaxDuration applies once the count runs past Escalation.
	MaxDuration    time.Duration
	BypassDuration time.Duration
	DecayAfter     time.Duration
}

// DefaultPolicy returns 2h, 4h, 8h, 16h, then 24h; a 48h bypass penalty; and
// a 7 day decay window.
func DefaultPolicy() Policy {
	return Policy{
		Escalation:     []time.Duration{2 * time.Hour, 4 * time.Hour, 8 * time.Hour, 16 * time.Hour},
		MaxDuration:    24 * time.Hour,
		BypassDuration: 48 * time.Hour,
		DecayAfter:     7 * 24 * time.Hour,
	}
}

// DurationFor returns the lock duration for a violation at count.
func (p Policy) DurationFor(count int) time.Duration {
	if count < 1 {
		count = 1
	}
	if count > len(p.Escalation) {
		return p.MaxDuration
	}
	return p.Escalation[count-1]
}

// Enforcement configures what the loop does while locked.
type Enforcement struct {
	TickInterval      time.Duration
	Workers           int
	Browsers          []string
	RestrictShell     bool
	ShellProcess      string
	BlockedTools      []string
	NetworkAdapters   []string
	FirewallRule      string
	ClearBrowserCache bool
	ActionTimeout     time.Duration
}

// DefaultEnforcement mirrors the shipped configuration defaults.
func DefaultEnforcement() Enforcement {
	return Enforcement{
		TickInterval:    time.Second,
		Workers:         3,
		Browsers:        []string{"chrome.exe", "msedge.exe", "firefox.exe", "opera.exe", "brave.exe"},
		ShellProcess:    "explorer.exe",
		BlockedTools:    []string{"taskmgr.exe", "cmd.exe", "powershell.exe"},
		NetworkAdapters: []string{"Wi-Fi", "Ethernet"},
		FirewallRule:    "LockdownBlockAll",
		ActionTimeout:   10 * time.Second,
	}
}
