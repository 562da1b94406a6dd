// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keysource

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/keystroke"
)

func TestReader_Run(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"character","char":"p"}`,
		``,
		`garbage`,
		`{"type":"character","char":"o"}`,
		`{"type":"enter"}`,
	}, "\n")

	r := NewReader(strings.NewReader(input), "test", zerolog.Nop())
	out := make(chan keystroke.Event, 8)

	err := r.Run(context.Background(), out)
	if !errors.Is(err, ErrEndOfInput) {
		t.Fatalf("Run() error = %v, want ErrEndOfInput", err)
	}
	close(out)

	var got []keystroke.Event
	for ev := range out {
		got = append(got, ev)
	}
	want := []keystroke.Event{keystroke.Character('p'), keystroke.Character('o'), keystroke.Enter()}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReader_Cancel(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	defer pw.Close()

	r := NewReader(pr, "pipe", zerolog.Nop())
	out := make(chan keystroke.Event)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, out) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReader_String(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(""), "stdin", zerolog.Nop())
	if r.String() != "reader:stdin" {
		t.Errorf("String() = %q", r.String())
	}
}
