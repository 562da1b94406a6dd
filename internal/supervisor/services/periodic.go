// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DecayChecker is satisfied by *lockdown.Controller.
type DecayChecker interface {
	CheckDecay(ctx context.Context) bool
}

// DecayService runs the escalation decay check on its own timer,
// independent of violations and of the enforcement loop.
type DecayService struct {
	checker  DecayChecker
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
}

// NewDecayService creates the scheduler. A nil clock uses the real clock.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDecayService(checker DecayChecker, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) *DecayService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &DecayService{checker: checker, clock: clock, interval: interval, logger: logger}
}

// Serve checks once immediately and then every interval.
func (s *DecayService) Serve(ctx context.Context) error {
	return runEvery(ctx, s.clock, s.interval, func() {
		if s.checker.CheckDecay(ctx) {
			s.logger.Info().Msg("Escalation decayed by scheduler")
		}
	})
}

// String implements fmt.Stringer.
func (s *DecayService) String() string {
	return "decay-scheduler"
}

// JournalCleaner is satisfied by *audit.Logger.
type JournalCleaner interface {
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}

// RetentionService prunes old journal events and reclaims disk space.
type RetentionService struct {
	journal  JournalCleaner
	gc       func() error
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
}

// NewRetentionService creates the cleaner. gc may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRetentionService(journal JournalCleaner, gc func() error, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) *RetentionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionService{journal: journal, gc: gc, clock: clock, interval: interval, logger: logger}
}

// Serve cleans once immediately and then every interval. Failures are
// logged and retried on the next run.
func (s *RetentionService) Serve(ctx context.Context) error {
	return runEvery(ctx, s.clock, s.interval, func() {
		removed, err := s.journal.Cleanup(ctx, s.clock.Now())
		if err != nil {
			s.logger.Warn().Err(err).Msg("Journal cleanup failed")
			return
		}
		if removed == 0 || s.gc == nil {
			return
		}
		if err := s.gc(); err != nil {
			s.logger.Warn().Err(err).Msg("Journal value log GC failed")
		}
	})
}

// String implements fmt.Stringer.
func (s *RetentionService) String() string {
	return "journal-retention"
}

// Pruner is satisfied by *auth.Lockout.
type Pruner interface {
	Cleanup() int
}

// PruneService forgets stale admin login failures.
type PruneService struct {
	pruner   Pruner
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
}

// NewPruneService creates the pruner. A nil clock uses the real clock.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPruneService(pruner Pruner, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) *PruneService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &PruneService{pruner: pruner, clock: clock, interval: interval, logger: logger}
}

// Serve prunes every interval.
func (s *PruneService) Serve(ctx context.Context) error {
	return runEvery(ctx, s.clock, s.interval, func() {
		if n := s.pruner.Cleanup(); n > 0 {
			s.logger.Debug().Int("removed", n).Msg("Pruned admin lockout entries")
		}
	})
}

// String implements fmt.Stringer.
func (s *PruneService) String() string {
	return "lockout-pruner"
}

func runEvery(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn func()) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}
