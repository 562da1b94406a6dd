// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*MockService)(nil)

func TestMockService(t *testing.T) {
	t.Run("runs until context canceled", func(t *testing.T) {
		svc := NewMockService("test")
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if svc.StartCount() != 1 || svc.StopCount() != 1 {
			t.Errorf("starts %d, stops %d, want 1 and 1", svc.StartCount(), svc.StopCount())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		svc := NewMockService("one-shot")
		svc.SetError(suture.ErrDoNotRestart)
		if err := svc.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("expected ErrDoNotRestart, got %v", err)
		}
	})

	t.Run("fails N times then runs", func(t *testing.T) {
		svc := NewMockService("retry")
		svc.SetFailCount(2)

		for i := 0; i < 2; i++ {
			if err := svc.Serve(context.Background()); err == nil {
				t.Fatalf("call %d should fail", i+1)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("third call: expected DeadlineExceeded, got %v", err)
		}
		if svc.String() != "retry" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}
