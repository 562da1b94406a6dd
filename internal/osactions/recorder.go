// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package osactions

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Op  string
	Arg string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Op
	}
	return c.Op + "(" + c.Arg + ")"
}

// Recorder is an in-memory Actions for tests. It keeps a process table that
// KillProcess removes from, records every call, and can be told to fail
// selected operations.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	processes map[int32]Process
	failures  map[string]error
	adapters  map[string]bool
	rules     map[string]bool
}

// NewRecorder creates a Recorder with the given running processes.
func NewRecorder(procs ...Process) *Recorder {
	r := &Recorder{
		processes: make(map[int32]Process),
		failures:  make(map[string]error),
		adapters:  make(map[string]bool),
		rules:     make(map[string]bool),
	}
	for _, p := range procs {
		r.processes[p.PID] = p
	}
	return r
}

// Spawn adds a running process.
func (r *Recorder) Spawn(p Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes[p.PID] = p
}

// FailOn makes every later call of op return err. A nil err clears it.
func (r *Recorder) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many times op was called.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Running reports whether pid is still in the process table.
func (r *Recorder) Running(pid int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processes[pid]
	return ok
}

// AdapterEnabled reports the last state set for name. Adapters start enabled.
func (r *Recorder) AdapterEnabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	enabled, seen := r.adapters[name]
	return !seen || enabled
}

// RuleActive reports whether a firewall rule named name exists.
func (r *Recorder) RuleActive(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rules[name]
}

// record must be called with mu held.
func (r *Recorder) record(op, arg string) error {
	r.calls = append(r.calls, Call{Op: op, Arg: arg})
	return r.failures[op]
}

// SetNetworkAdapterEnabled implements Actions.
func (r *Recorder) SetNetworkAdapterEnabled(_ context.Context, name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("SetNetworkAdapterEnabled", fmt.Sprintf("%s=%t", name, enabled)); err != nil {
		return err
	}
	r.adapters[name] = enabled
	return nil
}

// AddBlockAllFirewallRule implements Actions.
func (r *Recorder) AddBlockAllFirewallRule(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("AddBlockAllFirewallRule", name); err != nil {
		return err
	}
	r.rules[name] = true
	return nil
}

// RemoveFirewallRule implements Actions.
func (r *Recorder) RemoveFirewallRule(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("RemoveFirewallRule", name); err != nil {
		return err
	}
	delete(r.rules, name)
	return nil
}

// ListProcesses implements Actions.
func (r *Recorder) ListProcesses(_ context.Context, opts ...ListOption) ([]Process, error) {
	cfg := NewListConfig(opts...)
	r.mu.Lock()
	defer r.mu.Unlock()
	arg := ""
	if cfg.NamesOnly {
		arg = "names"
	}
	if err := r.record("ListProcesses", arg); err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(r.processes))
	for _, p := range r.processes {
		if cfg.NamesOnly {
			p.CommandLine = ""
		}
		out = append(out, p)
	}
	return out, nil
}

// KillProcess implements Actions.
func (r *Recorder) KillProcess(_ context.Context, pid int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("KillProcess", fmt.Sprint(pid)); err != nil {
		return err
	}
	if _, ok := r.processes[pid]; !ok {
		return fmt.Errorf("kill %d: %w", pid, ErrNoSuchProcess)
	}
	delete(r.processes, pid)
	return nil
}

// LaunchDetached implements Actions.
func (r *Recorder) LaunchDetached(_ context.Context, command string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("LaunchDetached", strings.TrimSpace(command+" "+strings.Join(args, " ")))
}

// ClearBrowserCache implements Actions.
func (r *Recorder) ClearBrowserCache(_ context.Context, browser string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("ClearBrowserCache", browser)
}

// RestoreShell implements Actions.
func (r *Recorder) RestoreShell(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record("RestoreShell", "")
}

var _ Actions = (*Recorder)(nil)
