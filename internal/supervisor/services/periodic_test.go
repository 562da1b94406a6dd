// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*DecayService)(nil)
	_ suture.Service = (*RetentionService)(nil)
	_ suture.Service = (*PruneService)(nil)
)

type countingDecay struct {
	calls atomic.Int32
}

func (c *countingDecay) CheckDecay(context.Context) bool {
	return c.calls.Add(1)%2 == 0
}

type scriptedCleaner struct {
	mu      sync.Mutex
	results []int64
	err     error
	nows    []time.Time
}

func (s *scriptedCleaner) Cleanup(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nows = append(s.nows, now)
	if s.err != nil {
		return 0, s.err
	}
	if len(s.results) == 0 {
		return 0, nil
	}
	n := s.results[0]
	s.results = s.results[1:]
	return n, nil
}

func (s *scriptedCleaner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nows)
}

func startService(t *testing.T, svc suture.Service) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestDecayService_RunsImmediatelyAndOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	checker := &countingDecay{}
	svc := NewDecayService(checker, time.Hour, clock, zerolog.Nop())

	cancel, done := startService(t, svc)

	assert.Eventually(t, func() bool { return checker.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	for want := int32(2); want <= 3; want++ {
		ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		stop()
		clock.Advance(time.Hour)
		assert.Eventually(t, func() bool { return checker.calls.Load() == want }, 2*time.Second, 5*time.Millisecond)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDecayService_Defaults(t *testing.T) {
	svc := NewDecayService(&countingDecay{}, 0, nil, zerolog.Nop())
	assert.Equal(t, 24*time.Hour, svc.interval)
	assert.NotNil(t, svc.clock)
	assert.Equal(t, "decay-scheduler", svc.String())
}

func TestRetentionService_GCOnlyAfterRemoval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cleaner := &scriptedCleaner{results: []int64{0, 5}}
	var gcCalls atomic.Int32
	gc := func() error {
		gcCalls.Add(1)
		return nil
	}
	svc := NewRetentionService(cleaner, gc, time.Hour, clock, zerolog.Nop())

	cancel, done := startService(t, svc)

	assert.Eventually(t, func() bool { return cleaner.calls() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), gcCalls.Load())

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Hour)

	assert.Eventually(t, func() bool { return gcCalls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, cleaner.calls())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	cleaner.mu.Lock()
	defer cleaner.mu.Unlock()
	assert.Equal(t, time.Hour, cleaner.nows[1].Sub(cleaner.nows[0]))
}

func TestRetentionService_CleanupErrorKeepsRunning(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cleaner := &scriptedCleaner{err: errors.New("disk full")}
	svc := NewRetentionService(cleaner, nil, time.Minute, clock, zerolog.Nop())

	cancel, done := startService(t, svc)

	assert.Eventually(t, func() bool { return cleaner.calls() == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return cleaner.calls() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, "journal-retention", svc.String())
}

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) Cleanup() int {
	return int(p.calls.Add(1))
}

func TestPruneService(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pruner := &countingPruner{}
	svc := NewPruneService(pruner, 10*time.Minute, clock, zerolog.Nop())

	cancel, done := startService(t, svc)
	assert.Eventually(t, func() bool { return pruner.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Minute)
	assert.Eventually(t, func() bool { return pruner.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, "lockout-pruner", svc.String())
}
