// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitStarted(t *testing.T, svc *MockService) {
	t.Helper()
	select {
	case <-svc.Started():
	case <-time.After(2 * time.Second):
		t.Fatalf("service %s did not start", svc)
	}
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		want := DefaultTreeConfig()
		if tree.config != want {
			t.Errorf("config = %+v, want %+v", tree.config, want)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureBackoff:  100 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	input := NewMockService("mock-input")
	control := NewMockService("mock-control")
	api := NewMockService("mock-api")
	tree.AddInputService(input)
	tree.AddControlService(control)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitStarted(t, input)
	waitStarted(t, control)
	waitStarted(t, api)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	for _, svc := range []*MockService{input, control, api} {
		if svc.StopCount() != svc.StartCount() {
			t.Errorf("%s: starts %d, stops %d", svc, svc.StartCount(), svc.StopCount())
		}
	}
}

func TestSupervisorTreeRestartsFailingService(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	flaky := NewMockService("flaky-input")
	flaky.SetFailCount(2)
	steady := NewMockService("steady-api")
	tree.AddInputService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for flaky.StartCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := flaky.StartCount(); got < 3 {
		t.Errorf("flaky service started %d times, want at least 3", got)
	}
	if got := steady.StartCount(); got != 1 {
		t.Errorf("steady service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

func TestSupervisorTreeDoNotRestart(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	oneShot := NewMockService("one-shot")
	oneShot.SetError(suture.ErrDoNotRestart)
	tree.AddInputService(oneShot)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitStarted(t, oneShot)
	time.Sleep(100 * time.Millisecond)
	if got := oneShot.StartCount(); got != 1 {
		t.Errorf("one-shot service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}
