// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import (
	"context"
	"time"
)

// EventKind names a controller transition.
type EventKind string

// Transition kinds reported to observers.
const (
	EventViolation   EventKind = "violation"
	EventBypass      EventKind = "bypass"
	EventReapplied   EventKind = "reapplied"
	EventUnlocked    EventKind = "unlocked"
	EventDecayReset  EventKind = "decay_reset"
	EventManualReset EventKind = "manual_reset"
)

// Event describes one transition after it happened.
type Event struct {
	Kind           EventKind
	Time           time.Time
	EpisodeID      string
	ViolationCount int
	Duration       time.Duration
	Until          time.Time
	Bypass         bool
	// Reason is the trigger source for locks and the cause for unlocks.
	Reason string
}

// Observer receives transitions. Observe is called outside the controller
// lock and must not block for long.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }
