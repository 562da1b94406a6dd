// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/vigil/internal/logging"
)

// LockoutConfig holds configuration for client lockout.
type LockoutConfig struct {
	// MaxAttempts is the number of failures before a lockout.
	MaxAttempts int

	// LockoutDuration is the first lockout period. Each later lockout of
	// the same client doubles it up to MaxLockoutDuration.
	LockoutDuration    time.Duration
	MaxLockoutDuration time.Duration

	// ForgetAfter drops the history of a client that has been quiet this long.
	ForgetAfter time.Duration
}

// DefaultLockoutConfig returns 5 attempts, 15 minutes doubling to 24 hours.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		ForgetAfter:        24 * time.Hour,
	}
}

type lockoutEntry struct {
	failures     int
	lockoutCount int
	lastAttempt  time.Time
	lockedUntil  time.Time
}

// Lockout tracks failed token attempts per client.
type Lockout struct {
	config  LockoutConfig
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

// NewLockout creates a Lockout. A nil clock uses the real clock.
func NewLockout(config LockoutConfig, clock clockwork.Clock) *Lockout {
	defaults := DefaultLockoutConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.LockoutDuration <= 0 {
		config.LockoutDuration = defaults.LockoutDuration
	}
	if config.MaxLockoutDuration < config.LockoutDuration {
		config.MaxLockoutDuration = config.LockoutDuration
	}
	if config.ForgetAfter <= 0 {
		config.ForgetAfter = defaults.ForgetAfter
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Lockout{
		config:  config,
		clock:   clock,
		entries: make(map[string]*lockoutEntry),
	}
}

// Locked returns the remaining lockout for client, or zero.
func (l *Lockout) Locked(client string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[client]
	if !ok {
		return 0
	}
	if remaining := entry.lockedUntil.Sub(l.clock.Now()); remaining > 0 {
		return remaining
	}
	return 0
}

// RecordFailure counts a failed attempt and returns the lockout it
// triggered, or zero.
func (l *Lockout) RecordFailure(client string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	entry, ok := l.entries[client]
	if !ok {
		entry = &lockoutEntry{}
		l.entries[client] = entry
	}
	if now.Before(entry.lockedUntil) {
		return entry.lockedUntil.Sub(now)
	}

	entry.failures++
	entry.lastAttempt = now
	if entry.failures < l.config.MaxAttempts {
		return 0
	}

	duration := l.lockoutDuration(entry.lockoutCount)
	entry.lockedUntil = now.Add(duration)
	entry.lockoutCount++
	entry.failures = 0

	logging.Warn().
		Str("client", client).
		Dur("duration", duration).
		Int("lockout_count", entry.lockoutCount).
		Msg("Admin client locked out")
	return duration
}

// RecordSuccess clears the history of client.
func (l *Lockout) RecordSuccess(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, client)
}

// Cleanup forgets clients that are not locked and have been quiet for
// ForgetAfter. It returns the number removed.
func (l *Lockout) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	removed := 0
	for client, entry := range l.entries {
		if now.Before(entry.lockedUntil) {
			continue
		}
		if now.Sub(entry.lastAttempt) >= l.config.ForgetAfter {
			delete(l.entries, client)
			removed++
		}
	}
	return removed
}

func (l *Lockout) lockoutDuration(lockoutCount int) time.Duration {
	duration := l.config.LockoutDuration
	for i := 0; i < lockoutCount; i++ {
		duration *= 2
		if duration >= l.config.MaxLockoutDuration {
			return l.config.MaxLockoutDuration
		}
	}
	return duration
}
