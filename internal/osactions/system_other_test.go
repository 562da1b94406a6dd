// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

//go:build unix

package osactions

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSystem_KillChild(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	cmd := exec.Command(sleep, "30")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}

	s := NewSystem(zerolog.New(io.Discard))
	if err := s.KillProcess(context.Background(), int32(cmd.Process.Pid)); err != nil {
		t.Fatalf("KillProcess() error = %v", err)
	}
	if err := cmd.Wait(); err == nil {
		t.Error("expected the child to exit with a signal")
	}
}

func TestSystem_ClearFirefoxCache(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cache := filepath.Join(home, ".cache", "mozilla", "firefox", "abcd.default", "cache2")
	if err := os.MkdirAll(filepath.Join(cache, "entries"), 0o700); err != nil {
		t.Fatal(err)
	}

	s := NewSystem(zerolog.New(io.Discard), WithHomeDir(home))
	if err := s.ClearBrowserCache(context.Background(), "firefox.exe"); err != nil {
		t.Fatalf("ClearBrowserCache() error = %v", err)
	}
	if _, err := os.Stat(cache); !os.IsNotExist(err) {
		t.Errorf("cache dir still present: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cache)); err != nil {
		t.Errorf("profile dir should survive: %v", err)
	}
}

func TestSystem_NetworkNoops(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewSystem(zerolog.New(io.Discard))
	if err := s.SetNetworkAdapterEnabled(ctx, "Wi-Fi", false); err != nil {
		t.Error(err)
	}
	if err := s.AddBlockAllFirewallRule(ctx, "LockdownBlockAll"); err != nil {
		t.Error(err)
	}
	if err := s.RemoveFirewallRule(ctx, "LockdownBlockAll"); err != nil {
		t.Error(err)
	}
	if err := s.RestoreShell(ctx); err != nil {
		t.Error(err)
	}
}
