// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package osactions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"
)

// System implements Actions against the running operating system.
type System struct {
	logger zerolog.Logger
	// shell is relaunched by RestoreShell.
	shell string
	// home overrides the user profile directory for cache paths.
	home string
	// run executes an external command such as netsh.
	run func(ctx context.Context, name string, args ...string) error
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithShell sets the process RestoreShell launches. Default: explorer.exe
func WithShell(shell string) SystemOption {
	return func(s *System) {
		if shell != "" {
			s.shell = shell
		}
	}
}

// WithHomeDir sets the profile directory browser caches are resolved against.
func WithHomeDir(dir string) SystemOption {
	return func(s *System) { s.home = dir }
}

// NewSystem returns the platform backend.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSystem(logger zerolog.Logger, opts ...SystemOption) *System {
	s := &System{logger: logger, shell: "explorer.exe"}
	s.run = s.runCommand
	for _, opt := range opts {
		opt(s)
	}
	if s.home == "" {
		s.home, _ = os.UserHomeDir()
	}
	return s
}

// ListProcesses enumerates running processes. Command lines cost one extra
// read per process and are skipped with NamesOnly.
func (s *System) ListProcesses(ctx context.Context, opts ...ListOption) ([]Process, error) {
	cfg := NewListConfig(opts...)

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		entry := Process{PID: p.Pid, Name: name}
		if !cfg.NamesOnly {
			entry.CommandLine, _ = p.CmdlineWithContext(ctx)
		}
		out = append(out, entry)
	}
	return out, nil
}

// KillProcess terminates pid.
func (s *System) KillProcess(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return classifyProcessError(pid, err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return classifyProcessError(pid, err)
	}
	return nil
}

func classifyProcessError(pid int32, err error) error {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning), errors.Is(err, os.ErrProcessDone):
		return fmt.Errorf("kill %d: %w", pid, ErrNoSuchProcess)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("kill %d: %w", pid, ErrAccessDenied)
	default:
		return fmt.Errorf("kill %d: %w", pid, err)
	}
}

// ClearBrowserCache removes the on-disk cache directories of browser, given
// by image name. Unknown browsers are ignored.
func (s *System) ClearBrowserCache(ctx context.Context, browser string) error {
	var errs []error
	for _, dir := range s.cacheDirs(strings.ToLower(browser)) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", dir, err))
			continue
		}
		s.logger.Debug().Str("browser", browser).Str("dir", dir).Msg("browser cache cleared")
	}
	return errors.Join(errs...)
}

// cacheDirs expands the cache patterns of browser under the profile directory.
func (s *System) cacheDirs(browser string) []string {
	patterns, ok := browserCaches[strings.TrimSuffix(browser, ".exe")]
	if !ok || s.home == "" {
		return nil
	}
	var dirs []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(s.home, filepath.FromSlash(pattern)))
		if err != nil {
			continue
		}
		dirs = append(dirs, matches...)
	}
	return dirs
}

// runCommand executes a command and folds its output into the error.
func (s *System) runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}

var _ Actions = (*System)(nil)
