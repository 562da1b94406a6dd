// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/vigil/internal/keysource"
	"github.com/tomtom215/vigil/internal/keystroke"
)

var _ suture.Service = (*KeystrokeService)(nil)

func typedLines(text string) string {
	var sb strings.Builder
	for _, ev := range keystroke.Type(text) {
		data, err := keysource.Encode(ev)
		if err != nil {
			panic(err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

type violationRecorder struct {
	mu      sync.Mutex
	matches []keystroke.MatchResult
}

func (v *violationRecorder) record(_ context.Context, m keystroke.MatchResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.matches = append(v.matches, m)
}

func (v *violationRecorder) snapshot() []keystroke.MatchResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]keystroke.MatchResult(nil), v.matches...)
}

func newPipeline(rec *violationRecorder) *keystroke.Segmenter {
	matcher := keystroke.NewMatcher(keystroke.NewBlocklist("forbidden"), rec.record, zerolog.Nop())
	return keystroke.NewSegmenter(matcher, 10, zerolog.Nop())
}

func TestKeystrokeService_EndOfInputStopsForGood(t *testing.T) {
	rec := &violationRecorder{}
	input := typedLines("this is forbiden\n")
	source := keysource.NewReader(strings.NewReader(input), "test", zerolog.Nop())
	svc := NewKeystrokeService(source, newPipeline(rec), zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := svc.Serve(ctx)
	assert.True(t, errors.Is(err, suture.ErrDoNotRestart), "got %v", err)

	matches := rec.snapshot()
	require.Len(t, matches, 1)
	assert.Equal(t, "forbidden", matches[0].Keyword)
	assert.Equal(t, 1, matches[0].Distance)
}

func TestKeystrokeService_NoMatchWithoutEnter(t *testing.T) {
	rec := &violationRecorder{}
	source := keysource.NewReader(strings.NewReader(typedLines("forbidden")), "test", zerolog.Nop())
	svc := NewKeystrokeService(source, newPipeline(rec), zerolog.Nop())

	err := svc.Serve(context.Background())
	assert.True(t, errors.Is(err, suture.ErrDoNotRestart))
	assert.Empty(t, rec.snapshot())
}

type stubSource struct {
	events []keystroke.Event
	err    error
}

func (s *stubSource) Run(ctx context.Context, out chan<- keystroke.Event) error {
	for _, ev := range s.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubSource) String() string { return "stub" }

type countingHandler struct {
	mu     sync.Mutex
	events []keystroke.Event
}

func (h *countingHandler) Handle(_ context.Context, ev keystroke.Event) keystroke.MatchResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return keystroke.MatchResult{}
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestKeystrokeService_SourceErrorRestarts(t *testing.T) {
	boom := errors.New("connection reset")
	source := &stubSource{events: keystroke.Type("abc"), err: boom}
	handler := &countingHandler{}
	svc := NewKeystrokeService(source, handler, zerolog.Nop())

	err := svc.Serve(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, suture.ErrDoNotRestart))
	assert.Equal(t, 3, handler.count(), "queued events are handled before returning")
}

func TestKeystrokeService_Cancel(t *testing.T) {
	source := &stubSource{events: keystroke.Type("ab")}
	handler := &countingHandler{}
	svc := NewKeystrokeService(source, handler, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	assert.Eventually(t, func() bool { return handler.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestKeystrokeService_String(t *testing.T) {
	svc := NewKeystrokeService(&stubSource{}, &countingHandler{}, zerolog.Nop())
	assert.Equal(t, "keystroke-pipeline", svc.String())
}
