// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/vigil/internal/osactions"
)

var testEpoch = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

const (
	waitFor   = 2 * time.Second
	pollEvery = 5 * time.Millisecond
)

type harness struct {
	ctrl  *Controller
	clock *clockwork.FakeClock
	store *FileStore
	rec   *osactions.Recorder
	seen  *eventLog
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Observe(_ context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

func testEnforcement() Enforcement {
	e := DefaultEnforcement()
	e.TickInterval = time.Minute
	return e
}

func newHarness(t *testing.T, rec *osactions.Recorder, opts ...Option) *harness {
	t.Helper()
	if rec == nil {
		rec = osactions.NewRecorder()
	}
	h := &harness{
		clock: clockwork.NewFakeClockAt(testEpoch),
		store: NewFileStore(filepath.Join(t.TempDir(), "lockdown.json")),
		rec:   rec,
		seen:  &eventLog{},
	}
	base := []Option{
		WithClock(h.clock),
		WithEnforcement(testEnforcement()),
		WithObserver(h.seen),
	}
	h.ctrl = NewController(h.store, rec, zerolog.Nop(), append(base, opts...)...)
	t.Cleanup(func() {
		_ = h.ctrl.Stop(context.Background())
	})
	return h
}

// waitLoop blocks until the enforcement ticker is registered on the fake clock.
func (h *harness) waitLoop(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
}

func TestController_InitialState(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	st := h.ctrl.Status()
	assert.False(t, st.Locked)
	assert.False(t, st.LoopAlive)
	assert.Equal(t, 1, st.ViolationCount)
	assert.Nil(t, st.LastViolation)
}

func TestController_EscalationTable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	want := []time.Duration{
		2 * time.Hour, 4 * time.Hour, 8 * time.Hour, 16 * time.Hour, 24 * time.Hour, 24 * time.Hour,
	}
	for i, d := range want {
		st := h.ctrl.TriggerViolation(ctx, "test")
		assert.True(t, st.Locked)
		assert.False(t, st.Bypass)
		assert.Equal(t, d, st.Duration, "violation %d", i+1)
		assert.Equal(t, i+2, st.ViolationCount, "count after violation %d", i+1)
		assert.Equal(t, testEpoch.Add(d), st.LockEnd)
		require.NotNil(t, st.LastViolation)
		assert.True(t, testEpoch.Equal(*st.LastViolation))
	}
}

func TestController_RelockKeepsSingleLoop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.ctrl.TriggerViolation(ctx, "test")
	h.waitLoop(t)
	second := h.ctrl.TriggerViolation(ctx, "test")

	assert.Equal(t, first.EpisodeID, second.EpisodeID)
	assert.True(t, second.LoopAlive)

	require.Eventually(t, func() bool {
		return h.rec.Count("AddBlockAllFirewallRule") == 1
	}, waitFor, pollEvery)
	// A second loop would register a second ticker.
	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, h.clock.BlockUntilContext(ctx2, 2))
	assert.Equal(t, 1, h.rec.Count("AddBlockAllFirewallRule"))
}

func TestController_Bypass(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	before := h.ctrl.Status()

	st := h.ctrl.TriggerBypass(ctx, "watchdog")
	assert.True(t, st.Locked)
	assert.True(t, st.Bypass)
	assert.Equal(t, 48*time.Hour, st.Duration)
	assert.Equal(t, before.ViolationCount, st.ViolationCount)
	require.NotNil(t, st.LastViolation)
	assert.True(t, before.LastViolation.Equal(*st.LastViolation))
}

func TestController_PersistsOnLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.ctrl.TriggerViolation(context.Background(), "test")

	rec, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.IsLocked)
	assert.False(t, rec.IsBypass)
	assert.Equal(t, 2, rec.ViolationCount)
	assert.InDelta(t, 7200.0, rec.LockDuration, 0.001)
	assert.InDelta(t, rec.LockStartTime+rec.LockDuration, rec.LockEndTime, 0.001)
	assert.InDelta(t, float64(testEpoch.Unix()), rec.LockStartTime, 0.001)
}

func TestController_ExpiryUnlocks(t *testing.T) {
	t.Parallel()
	rec := osactions.NewRecorder(osactions.Process{PID: 42, Name: "chrome.exe"})
	h := newHarness(t, rec)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	h.waitLoop(t)
	require.Eventually(t, func() bool { return !rec.AdapterEnabled("Wi-Fi") }, waitFor, pollEvery)
	assert.True(t, rec.RuleActive("LockdownBlockAll"))

	h.clock.Advance(2 * time.Hour)
	require.Eventually(t, func() bool { return !h.ctrl.Status().Locked }, waitFor, pollEvery)

	st := h.ctrl.Status()
	assert.False(t, st.LoopAlive)
	assert.Equal(t, 2, st.ViolationCount, "unlock keeps the escalation level")
	assert.True(t, rec.AdapterEnabled("Wi-Fi"))
	assert.True(t, rec.AdapterEnabled("Ethernet"))
	assert.False(t, rec.RuleActive("LockdownBlockAll"))
	assert.Equal(t, 1, rec.Count("RestoreShell"))

	_, err := h.store.Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)

	require.Eventually(t, func() bool { return len(h.seen.kinds()) == 2 }, waitFor, pollEvery)
	assert.Equal(t, []EventKind{EventViolation, EventUnlocked}, h.seen.kinds())
}

func TestController_UnlockIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.False(t, h.ctrl.Unlock(ctx), "unlock while unlocked")

	h.ctrl.TriggerViolation(ctx, "test")
	assert.True(t, h.ctrl.Unlock(ctx))
	assert.False(t, h.ctrl.Unlock(ctx))

	st := h.ctrl.Status()
	assert.False(t, st.Locked)
	assert.False(t, st.LoopAlive)
	assert.Equal(t, 1, h.rec.Count("RemoveFirewallRule"))
}

func TestController_UnlockSkipsRunningShell(t *testing.T) {
	t.Parallel()
	rec := osactions.NewRecorder(osactions.Process{PID: 7, Name: "Explorer.EXE"})
	h := newHarness(t, rec)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	h.ctrl.Unlock(ctx)
	assert.Equal(t, 0, rec.Count("RestoreShell"))
}

func TestController_RelockAfterUnlockStartsNewEpisode(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.ctrl.TriggerViolation(ctx, "test")
	h.ctrl.Unlock(ctx)
	second := h.ctrl.TriggerViolation(ctx, "test")

	assert.NotEqual(t, first.EpisodeID, second.EpisodeID)
	assert.True(t, second.LoopAlive)
	assert.Equal(t, 4*time.Hour, second.Duration)
}

func TestController_Decay(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	h.ctrl.Unlock(ctx)
	h.ctrl.TriggerViolation(ctx, "test")
	h.ctrl.Unlock(ctx)
	require.Equal(t, 3, h.ctrl.Status().ViolationCount)

	h.clock.Advance(6 * 24 * time.Hour)
	assert.False(t, h.ctrl.CheckDecay(ctx), "inside the decay window")
	assert.Equal(t, 3, h.ctrl.Status().ViolationCount)

	h.clock.Advance(2 * 24 * time.Hour)
	assert.True(t, h.ctrl.CheckDecay(ctx))
	st := h.ctrl.Status()
	assert.Equal(t, 1, st.ViolationCount)
	assert.Nil(t, st.LastViolation)

	rec, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, rec.IsLocked)
	assert.Equal(t, 1, rec.ViolationCount)
	assert.Nil(t, rec.LastViolationTime)

	assert.False(t, h.ctrl.CheckDecay(ctx), "count already at baseline")
	assert.Contains(t, h.seen.kinds(), EventDecayReset)
}

func TestController_ResetViolationCount(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	st := h.ctrl.ResetViolationCount(ctx)
	assert.Equal(t, 1, st.ViolationCount)
	assert.Nil(t, st.LastViolation)
	assert.True(t, st.Locked, "reset leaves the active lock alone")

	rec, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, rec.IsLocked)
	assert.Equal(t, 1, rec.ViolationCount)
}

func TestController_ReapplyFutureLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	last := testEpoch.Add(-time.Hour)
	require.NoError(t, h.store.Save(ctx, State{
		IsLocked:          true,
		LockStartTime:     float64(testEpoch.Add(-time.Hour).Unix()),
		LockEndTime:       float64(testEpoch.Add(time.Hour).Unix()),
		LockDuration:      7200,
		IsBypass:          true,
		ViolationCount:    3,
		LastViolationTime: &last,
	}))

	st := h.ctrl.CheckAndReapplyLock(ctx)
	assert.True(t, st.Locked)
	assert.True(t, st.Bypass)
	assert.True(t, st.LoopAlive)
	assert.Equal(t, 3, st.ViolationCount, "reapply does not increment")
	assert.Equal(t, time.Hour, st.Remaining)
	assert.Equal(t, testEpoch.Add(time.Hour), st.LockEnd)
	assert.Equal(t, []EventKind{EventReapplied}, h.seen.kinds())
}

func TestController_ReapplyExpiredLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	last := testEpoch.Add(-26 * time.Hour)
	require.NoError(t, h.store.Save(ctx, State{
		IsLocked:          true,
		LockStartTime:     float64(last.Unix()),
		LockEndTime:       float64(last.Add(8 * time.Hour).Unix()),
		LockDuration:      8 * 3600,
		ViolationCount:    4,
		LastViolationTime: &last,
	}))

	st := h.ctrl.CheckAndReapplyLock(ctx)
	assert.False(t, st.Locked)
	assert.False(t, st.LoopAlive)
	assert.Equal(t, 4, st.ViolationCount, "escalation survives restart")
	require.NotNil(t, st.LastViolation)
	assert.True(t, last.Equal(*st.LastViolation))

	_, err := h.store.Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)
	assert.Equal(t, 1, h.rec.Count("RemoveFirewallRule"))
}

func TestController_ReapplyExpiredLockDecays(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	last := testEpoch.Add(-8 * 24 * time.Hour)
	require.NoError(t, h.store.Save(ctx, State{
		IsLocked:          true,
		LockStartTime:     float64(last.Unix()),
		LockEndTime:       float64(last.Add(8 * time.Hour).Unix()),
		LockDuration:      8 * 3600,
		ViolationCount:    3,
		LastViolationTime: &last,
	}))

	st := h.ctrl.CheckAndReapplyLock(ctx)
	assert.False(t, st.Locked)
	assert.Equal(t, 1, st.ViolationCount)
	assert.Nil(t, st.LastViolation)
}

func TestController_ReapplyMissingOrCorrupt(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		st := h.ctrl.CheckAndReapplyLock(context.Background())
		assert.False(t, st.Locked)
		assert.Equal(t, 1, st.ViolationCount)
		assert.Empty(t, h.seen.kinds())
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		require.NoError(t, os.WriteFile(h.store.Path(), []byte("{not json"), 0o600))

		st := h.ctrl.CheckAndReapplyLock(context.Background())
		assert.False(t, st.Locked)
		assert.Equal(t, 1, st.ViolationCount)

		_, err := os.Stat(h.store.Path())
		assert.True(t, os.IsNotExist(err), "corrupt record is discarded")
	})
}

func TestController_OSFailuresDoNotAbort(t *testing.T) {
	t.Parallel()
	rec := osactions.NewRecorder(osactions.Process{PID: 9, Name: "firefox.exe"})
	boom := errors.New("netsh failed")
	rec.FailOn("SetNetworkAdapterEnabled", boom)
	rec.FailOn("AddBlockAllFirewallRule", boom)
	rec.FailOn("RemoveFirewallRule", boom)
	rec.FailOn("RestoreShell", boom)
	h := newHarness(t, rec)
	ctx := context.Background()

	st := h.ctrl.TriggerViolation(ctx, "test")
	assert.True(t, st.Locked)
	require.Eventually(t, func() bool { return !rec.Running(9) }, waitFor, pollEvery)

	assert.True(t, h.ctrl.Unlock(ctx))
	assert.False(t, h.ctrl.Status().Locked)
}

func TestController_StopKeepsPersistedLock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	h.waitLoop(t)
	require.NoError(t, h.ctrl.Stop(ctx))

	assert.False(t, h.ctrl.Status().LoopAlive)
	rec, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, rec.IsLocked)
	assert.Equal(t, 0, h.rec.Count("RemoveFirewallRule"))
}

type failingStore struct{}

func (failingStore) Load(context.Context) (State, error) { return State{}, errors.New("disk gone") }
func (failingStore) Save(context.Context, State) error   { return errors.New("disk gone") }
func (failingStore) Clear(context.Context) error         { return errors.New("disk gone") }

func TestController_PersistenceFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClockAt(testEpoch)
	ctrl := NewController(failingStore{}, osactions.NewRecorder(), zerolog.Nop(),
		WithClock(clock), WithEnforcement(testEnforcement()))
	t.Cleanup(func() { _ = ctrl.Stop(context.Background()) })
	ctx := context.Background()

	st := ctrl.TriggerViolation(ctx, "test")
	assert.True(t, st.Locked)
	assert.Equal(t, 2, st.ViolationCount)
	assert.True(t, ctrl.Unlock(ctx))
	assert.False(t, ctrl.Status().Locked)
}

// slowListing delays process listings and fails network calls whose
// context has already expired, the way a netsh call past its deadline does.
type slowListing struct {
	*osactions.Recorder
	delay time.Duration
}

func (s *slowListing) ListProcesses(ctx context.Context, opts ...osactions.ListOption) ([]osactions.Process, error) {
	time.Sleep(s.delay)
	return s.Recorder.ListProcesses(ctx, opts...)
}

func (s *slowListing) SetNetworkAdapterEnabled(ctx context.Context, name string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Recorder.SetNetworkAdapterEnabled(ctx, name, enabled)
}

func (s *slowListing) RemoveFirewallRule(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Recorder.RemoveFirewallRule(ctx, name)
}

func newSlowController(t *testing.T, rec *osactions.Recorder) (*Controller, *FileStore, Enforcement) {
	t.Helper()
	enf := testEnforcement()
	enf.ActionTimeout = 200 * time.Millisecond
	store := NewFileStore(filepath.Join(t.TempDir(), "lockdown.json"))
	ctrl := NewController(store, &slowListing{Recorder: rec, delay: 250 * time.Millisecond}, zerolog.Nop(),
		WithClock(clockwork.NewFakeClockAt(testEpoch)), WithEnforcement(enf))
	t.Cleanup(func() { _ = ctrl.Stop(context.Background()) })
	return ctrl, store, enf
}

func TestController_UnlockRestoresNetworkDespiteSlowListing(t *testing.T) {
	t.Parallel()
	rec := osactions.NewRecorder()
	ctrl, _, enf := newSlowController(t, rec)
	ctx := context.Background()

	ctrl.TriggerViolation(ctx, "test")
	require.Eventually(t, func() bool {
		return rec.RuleActive(enf.FirewallRule) && !rec.AdapterEnabled("Ethernet")
	}, waitFor, pollEvery)

	require.True(t, ctrl.Unlock(ctx))
	assert.False(t, ctrl.Status().Locked)
	assert.False(t, rec.RuleActive(enf.FirewallRule), "firewall rule removed")
	for _, adapter := range enf.NetworkAdapters {
		assert.True(t, rec.AdapterEnabled(adapter), "adapter %s re-enabled", adapter)
	}
	assert.Equal(t, 1, rec.Count("RestoreShell"), "shell restore still runs after the slow listing")
}

func TestController_ReapplyExpiredLockRestoresNetworkDespiteSlowListing(t *testing.T) {
	t.Parallel()
	rec := osactions.NewRecorder()
	ctrl, store, enf := newSlowController(t, rec)
	ctx := context.Background()

	start := testEpoch.Add(-3 * time.Hour)
	require.NoError(t, store.Save(ctx, State{
		IsLocked:       true,
		LockStartTime:  float64(start.Unix()),
		LockEndTime:    float64(start.Add(2 * time.Hour).Unix()),
		LockDuration:   2 * 3600,
		ViolationCount: 2,
	}))

	st := ctrl.CheckAndReapplyLock(ctx)
	assert.False(t, st.Locked)
	assert.Equal(t, 1, rec.Count("RemoveFirewallRule"))
	assert.Equal(t, len(enf.NetworkAdapters), rec.Count("SetNetworkAdapterEnabled"))
	for _, adapter := range enf.NetworkAdapters {
		assert.True(t, rec.AdapterEnabled(adapter), "adapter %s enabled", adapter)
	}
}

func TestController_UnlockBeforeLoopEngagesLeavesNetworkUp(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	require.True(t, h.ctrl.Unlock(ctx))

	rule := testEnforcement().FirewallRule
	assert.Never(t, func() bool {
		return h.rec.RuleActive(rule) || !h.rec.AdapterEnabled("Wi-Fi")
	}, 100*time.Millisecond, pollEvery)
}

func TestController_ReapplyAfterUnlockKeepsCount(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	h.ctrl.TriggerViolation(ctx, "test")
	h.ctrl.TriggerViolation(ctx, "test")
	require.True(t, h.ctrl.Unlock(ctx))

	st := h.ctrl.CheckAndReapplyLock(ctx)
	assert.False(t, st.Locked)
	assert.Equal(t, 3, st.ViolationCount, "a missing record does not reset a known count")
	require.NotNil(t, st.LastViolation)
	assert.True(t, testEpoch.Equal(*st.LastViolation))
}
