// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/osactions"
)

// Unlock reasons.
const (
	UnlockAdmin   = "admin"
	UnlockExpired = "expired"
)

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Locked         bool
	Bypass         bool
	ViolationCount int
	LockStart      time.Time
	LockEnd        time.Time
	Duration       time.Duration
	Remaining      time.Duration
	LastViolation  *time.Time
	LoopAlive      bool
	EpisodeID      string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock. Tests pass a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithPolicy sets the escalation and decay rules.
func WithPolicy(p Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithEnforcement sets what the loop does while locked.
func WithEnforcement(e Enforcement) Option {
	return func(c *Controller) { c.enf = e }
}

// WithObserver registers an observer for transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// Controller owns the lock state and the enforcement loop.
type Controller struct {
	mu      sync.Mutex
	state   lockState
	episode string
	// seeded is set once the count comes from a loaded record or a lock
	// taken by this process. A missing record resets the count only before.
	seeded bool

	loopCancel context.CancelFunc
	loopDone   chan struct{}
	loopGen    uint64

	memoMu  sync.Mutex
	killed  map[int32]struct{}
	cleared map[string]struct{}

	clock     clockwork.Clock
	store     Store
	actions   osactions.Actions
	policy    Policy
	enf       Enforcement
	observers []Observer
	logger    zerolog.Logger

	browsers map[string]struct{}
	tools    map[string]struct{}
	shell    map[string]struct{}
}

// NewController creates an unlocked controller with a violation count of 1.
// Call CheckAndReapplyLock once before use to resume a persisted lock.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewController(store Store, actions osactions.Actions, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		state:   lockState{count: 1},
		killed:  make(map[int32]struct{}),
		cleared: make(map[string]struct{}),
		clock:   clockwork.NewRealClock(),
		store:   store,
		actions: actions,
		policy:  DefaultPolicy(),
		enf:     DefaultEnforcement(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.enf.TickInterval <= 0 {
		c.enf.TickInterval = time.Second
	}
	if c.enf.Workers < 1 {
		c.enf.Workers = 1
	}
	if c.enf.ActionTimeout <= 0 {
		c.enf.ActionTimeout = 10 * time.Second
	}
	c.browsers = nameSet(c.enf.Browsers)
	c.tools = nameSet(c.enf.BlockedTools)
	c.shell = nameSet([]string{c.enf.ShellProcess})

	metrics.RecordLockState(false, c.state.count, 0)
	return c
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// TriggerViolation locks for the escalation step at the current count and
// then increments the count. source is recorded on the event.
func (c *Controller) TriggerViolation(ctx context.Context, source string) Status {
	c.mu.Lock()
	now := c.clock.Now()
	duration := c.policy.DurationFor(c.state.count)
	c.state.count++
	last := now
	c.state.lastViolation = &last
	c.state.bypass = false

	ev := c.lockLocked(ctx, now, duration)
	ev.Kind = EventViolation
	ev.Reason = source
	st := c.statusLocked(now)
	c.mu.Unlock()

	metrics.ViolationsTotal.Inc()
	c.logger.Warn().
		Str("episode_id", ev.EpisodeID).
		Str("source", source).
		Int("violation_count", ev.ViolationCount).
		Dur("duration", duration).
		Time("until", ev.Until).
		Msg("Violation detected, system locked")

	c.publish(ctx, ev)
	return st
}

// TriggerBypass locks for the bypass penalty. The violation count is left
// as is.
func (c *Controller) TriggerBypass(ctx context.Context, source string) Status {
	c.mu.Lock()
	now := c.clock.Now()
	duration := c.policy.BypassDuration
	c.state.bypass = true

	ev := c.lockLocked(ctx, now, duration)
	ev.Kind = EventBypass
	ev.Reason = source
	st := c.statusLocked(now)
	c.mu.Unlock()

	metrics.BypassLocksTotal.Inc()
	c.logger.Warn().
		Str("episode_id", ev.EpisodeID).
		Str("source", source).
		Dur("duration", duration).
		Time("until", ev.Until).
		Msg("Bypass attempt detected, penalty lock applied")

	c.publish(ctx, ev)
	return st
}

// lockLocked enters or refreshes the locked state. c.mu must be held.
func (c *Controller) lockLocked(ctx context.Context, now time.Time, duration time.Duration) Event {
	if !c.state.locked {
		c.episode = logging.GenerateEpisodeID()
	}
	c.seeded = true
	c.state.locked = true
	c.state.start = now
	c.state.duration = duration
	c.state.end = now.Add(duration)

	c.persistLocked(ctx)

	if c.loopCancel == nil {
		c.startLoopLocked(ctx)
	} else {
		c.logger.Info().
			Str("episode_id", c.episode).
			Time("until", c.state.end).
			Msg("Enforcement loop already running, lock window updated")
	}

	metrics.RecordLockState(true, c.state.count, duration)
	return Event{
		Time:           now,
		EpisodeID:      c.episode,
		ViolationCount: c.state.count,
		Duration:       duration,
		Until:          c.state.end,
		Bypass:         c.state.bypass,
	}
}

// startLoopLocked launches the enforcement goroutine. c.mu must be held.
func (c *Controller) startLoopLocked(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	loopCtx = logging.ContextWithEpisodeID(loopCtx, c.episode)
	loopCtx = logging.ContextWithLogger(loopCtx, c.logger)

	c.loopGen++
	gen := c.loopGen
	done := make(chan struct{})
	c.loopCancel = cancel
	c.loopDone = done

	go func() {
		defer close(done)
		c.runLoop(loopCtx, gen)
	}()
}

// stopLoopLocked cancels the running loop, if any. c.mu must be held.
func (c *Controller) stopLoopLocked() chan struct{} {
	done := c.loopDone
	if c.loopCancel != nil {
		c.loopCancel()
		c.loopCancel = nil
		c.loopGen++
	}
	c.loopDone = nil
	return done
}

// Unlock ends the active lock and restores the system. It reports whether a
// lock was active.
func (c *Controller) Unlock(ctx context.Context) bool {
	return c.unlock(ctx, UnlockAdmin, 0)
}

// unlock ends the lock. A non-zero gen restricts it to the loop of that
// generation and to a lock window that has passed.
func (c *Controller) unlock(ctx context.Context, reason string, gen uint64) bool {
	c.mu.Lock()
	if !c.state.locked {
		c.mu.Unlock()
		return false
	}
	now := c.clock.Now()
	if gen != 0 && (gen != c.loopGen || now.Before(c.state.end)) {
		c.mu.Unlock()
		return false
	}

	episode := c.episode
	wasBypass := c.state.bypass
	c.state.clearLock()
	c.stopLoopLocked()
	c.resetMemo()

	c.restoreSystem(context.WithoutCancel(ctx))

	c.clearStoreLocked(ctx)

	events := []Event{{
		Kind:           EventUnlocked,
		Time:           now,
		EpisodeID:      episode,
		ViolationCount: c.state.count,
		Bypass:         wasBypass,
		Reason:         reason,
	}}
	if ev, ok := c.decayLocked(ctx, now); ok {
		events = append(events, ev)
	}
	c.episode = ""
	count := c.state.count
	c.mu.Unlock()

	metrics.RecordUnlock(reason)
	metrics.RecordLockState(false, count, 0)
	c.logger.Info().
		Str("episode_id", episode).
		Str("reason", reason).
		Int("violation_count", count).
		Msg("System unlocked")

	c.publish(ctx, events...)
	return true
}

// CheckAndReapplyLock resumes a persisted, unexpired lock for its remaining
// time. Expired or unreadable records are cleared. It is meant to run once
// at startup; a later call never resets a count this process already knows.
func (c *Controller) CheckAndReapplyLock(ctx context.Context) Status {
	lctx, cancel := context.WithTimeout(ctx, c.enf.ActionTimeout)
	st, err := c.store.Load(lctx)
	cancel()

	c.mu.Lock()
	now := c.clock.Now()
	if c.state.locked {
		s := c.statusLocked(now)
		c.mu.Unlock()
		return s
	}

	var events []Event
	switch {
	case errors.Is(err, ErrStateNotFound):
		if !c.seeded {
			c.state.count = 1
			c.state.lastViolation = nil
		}
		c.logger.Info().Int("violation_count", c.state.count).Msg("No persisted lock state found")

	case err != nil:
		c.logger.Warn().Err(err).Msg("Lock state unreadable, discarding it")
		c.clearStoreLocked(ctx)

	default:
		c.restoreEscalation(st)
		c.seeded = true
		end := fromEpochSeconds(st.LockEndTime)
		switch {
		case st.IsLocked && end.After(now):
			c.state.bypass = st.IsBypass
			ev := c.lockLocked(ctx, now, end.Sub(now))
			ev.Kind = EventReapplied
			ev.Reason = "restart"
			events = append(events, ev)
			c.logger.Warn().
				Str("episode_id", ev.EpisodeID).
				Bool("bypass", st.IsBypass).
				Dur("remaining", ev.Duration).
				Msg("Persisted lock still active, reapplied")

		case st.IsLocked:
			c.logger.Info().
				Time("expired_at", end).
				Msg("Persisted lock expired while stopped, restoring system")
			c.restoreSystem(context.WithoutCancel(ctx))
			c.clearStoreLocked(ctx)
		}
	}

	if ev, ok := c.decayLocked(ctx, now); ok {
		events = append(events, ev)
	}
	s := c.statusLocked(now)
	c.mu.Unlock()

	metrics.RecordLockState(s.Locked, s.ViolationCount, s.Remaining)
	c.publish(ctx, events...)
	return s
}

// restoreEscalation copies the escalation fields of a persisted record.
// c.mu must be held.
func (c *Controller) restoreEscalation(st State) {
	c.state.count = max(st.ViolationCount, 1)
	c.state.lastViolation = nil
	if st.LastViolationTime != nil {
		t := *st.LastViolationTime
		c.state.lastViolation = &t
	}
}

// CheckDecay resets the count to 1 when the last violation is older than
// the decay window. It reports whether a reset happened.
func (c *Controller) CheckDecay(ctx context.Context) bool {
	c.mu.Lock()
	ev, ok := c.decayLocked(ctx, c.clock.Now())
	count := c.state.count
	c.mu.Unlock()

	if ok {
		metrics.ViolationCount.Set(float64(count))
		c.publish(ctx, ev)
	}
	return ok
}

// decayLocked applies the decay rule. c.mu must be held.
func (c *Controller) decayLocked(ctx context.Context, now time.Time) (Event, bool) {
	if c.state.count <= 1 || c.state.lastViolation == nil {
		return Event{}, false
	}
	idle := now.Sub(*c.state.lastViolation)
	if idle < c.policy.DecayAfter {
		return Event{}, false
	}

	previous := c.state.count
	c.state.count = 1
	c.state.lastViolation = nil
	c.persistLocked(ctx)

	metrics.DecayResetsTotal.Inc()
	c.logger.Info().
		Int("previous_count", previous).
		Dur("idle", idle).
		Msg("Violation-free streak reached, escalation reset")

	return Event{
		Kind:           EventDecayReset,
		Time:           now,
		EpisodeID:      c.episode,
		ViolationCount: 1,
		Reason:         "decay",
	}, true
}

// ResetViolationCount sets the count back to 1 and forgets the last
// violation. An active lock is not affected.
func (c *Controller) ResetViolationCount(ctx context.Context) Status {
	c.mu.Lock()
	now := c.clock.Now()
	c.state.count = 1
	c.state.lastViolation = nil
	c.persistLocked(ctx)
	s := c.statusLocked(now)
	c.mu.Unlock()

	metrics.ViolationCount.Set(1)
	c.logger.Info().Msg("Violation count reset")
	c.publish(ctx, Event{
		Kind:           EventManualReset,
		Time:           now,
		EpisodeID:      s.EpisodeID,
		ViolationCount: 1,
		Reason:         "admin",
	})
	return s
}

// Status returns a snapshot of the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(c.clock.Now())
}

func (c *Controller) statusLocked(now time.Time) Status {
	s := Status{
		Locked:         c.state.locked,
		Bypass:         c.state.bypass,
		ViolationCount: c.state.count,
		LoopAlive:      c.loopCancel != nil,
		EpisodeID:      c.episode,
	}
	if c.state.locked {
		s.LockStart = c.state.start
		s.LockEnd = c.state.end
		s.Duration = c.state.duration
		s.Remaining = max(c.state.end.Sub(now), 0)
	}
	if c.state.lastViolation != nil {
		t := *c.state.lastViolation
		s.LastViolation = &t
	}
	return s
}

// Stop ends the enforcement loop without unlocking so the persisted lock is
// resumed on the next start. It waits for the loop to exit or ctx to end.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	done := c.stopLoopLocked()
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// persistLocked writes the current state. Failures are logged; the in-memory
// state stays authoritative. c.mu must be held.
func (c *Controller) persistLocked(ctx context.Context) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.enf.ActionTimeout)
	defer cancel()
	if err := c.store.Save(pctx, c.state.record()); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist lock state")
	}
}

// clearStoreLocked removes the persisted record. c.mu must be held.
func (c *Controller) clearStoreLocked(ctx context.Context) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.enf.ActionTimeout)
	defer cancel()
	if err := c.store.Clear(pctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear lock state")
	}
}

func (c *Controller) publish(ctx context.Context, events ...Event) {
	for _, ev := range events {
		ectx := ctx
		if ev.EpisodeID != "" {
			ectx = logging.ContextWithEpisodeID(ctx, ev.EpisodeID)
		}
		for _, o := range c.observers {
			o.Observe(ectx, ev)
		}
	}
}
