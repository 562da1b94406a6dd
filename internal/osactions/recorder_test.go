// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package osactions

import (
	"context"
	"errors"
	"testing"
)

func TestRecorder_KillRemovesProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRecorder(Process{PID: 10, Name: "chrome.exe"}, Process{PID: 11, Name: "notepad.exe"})

	if err := r.KillProcess(ctx, 10); err != nil {
		t.Fatalf("KillProcess() error = %v", err)
	}
	if r.Running(10) {
		t.Error("pid 10 should be gone")
	}
	if !r.Running(11) {
		t.Error("pid 11 should still run")
	}

	err := r.KillProcess(ctx, 10)
	if !errors.Is(err, ErrNoSuchProcess) {
		t.Errorf("second kill error = %v, want ErrNoSuchProcess", err)
	}

	procs, err := r.ListProcesses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(procs) != 1 || procs[0].PID != 11 {
		t.Errorf("ListProcesses() = %v", procs)
	}
}

func TestRecorder_NetworkState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRecorder()

	if !r.AdapterEnabled("Wi-Fi") {
		t.Error("adapters start enabled")
	}
	_ = r.SetNetworkAdapterEnabled(ctx, "Wi-Fi", false)
	_ = r.AddBlockAllFirewallRule(ctx, "LockdownBlockAll")
	if r.AdapterEnabled("Wi-Fi") {
		t.Error("Wi-Fi should be disabled")
	}
	if !r.RuleActive("LockdownBlockAll") {
		t.Error("rule should be active")
	}

	_ = r.SetNetworkAdapterEnabled(ctx, "Wi-Fi", true)
	_ = r.RemoveFirewallRule(ctx, "LockdownBlockAll")
	if !r.AdapterEnabled("Wi-Fi") || r.RuleActive("LockdownBlockAll") {
		t.Error("network should be restored")
	}

	want := []string{
		"SetNetworkAdapterEnabled(Wi-Fi=false)",
		"AddBlockAllFirewallRule(LockdownBlockAll)",
		"SetNetworkAdapterEnabled(Wi-Fi=true)",
		"RemoveFirewallRule(LockdownBlockAll)",
	}
	calls := r.Calls()
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i, c := range calls {
		if c.String() != want[i] {
			t.Errorf("call %d = %s, want %s", i, c, want[i])
		}
	}
}

func TestRecorder_FailOn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRecorder()
	boom := errors.New("netsh exited 1")

	r.FailOn("AddBlockAllFirewallRule", boom)
	if err := r.AddBlockAllFirewallRule(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if r.RuleActive("x") {
		t.Error("failed add must not create the rule")
	}

	r.FailOn("AddBlockAllFirewallRule", nil)
	if err := r.AddBlockAllFirewallRule(ctx, "x"); err != nil {
		t.Errorf("error after clearing failure = %v", err)
	}
	if r.Count("AddBlockAllFirewallRule") != 2 {
		t.Errorf("Count = %d, want 2", r.Count("AddBlockAllFirewallRule"))
	}
}

func TestRecorder_LaunchDetached(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	_ = r.LaunchDetached(context.Background(), "explorer.exe")
	_ = r.RestoreShell(context.Background())

	calls := r.Calls()
	if calls[0].String() != "LaunchDetached(explorer.exe)" {
		t.Errorf("call = %s", calls[0])
	}
	if calls[1].Op != "RestoreShell" {
		t.Errorf("call = %s", calls[1])
	}
}

func TestRecorder_ListProcessesNamesOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRecorder(Process{PID: 7, Name: "chrome.exe", CommandLine: "chrome.exe --incognito"})

	full, err := r.ListProcesses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 1 || full[0].CommandLine != "chrome.exe --incognito" {
		t.Errorf("full listing = %v", full)
	}

	names, err := r.ListProcesses(ctx, NamesOnly())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0].Name != "chrome.exe" || names[0].CommandLine != "" {
		t.Errorf("names-only listing = %v", names)
	}

	calls := r.Calls()
	if got := calls[len(calls)-1].String(); got != "ListProcesses(names)" {
		t.Errorf("last call = %q, want ListProcesses(names)", got)
	}
}
