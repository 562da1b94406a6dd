// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package audit keeps the lockdown journal.
//
// Every lock transition the controller reports is recorded as an Event:
//   - lock.violation: a blocklisted word locked the system
//   - lock.bypass: a bypass report imposed the penalty lock
//   - lock.reapplied: a persisted lock was resumed after a restart
//   - lock.unlocked: a lock ended, by expiry or by an administrator
//   - escalation.decay_reset: a violation-free streak reset the count
//   - escalation.manual_reset: an administrator reset the count
//
// Administrative requests against the local API are recorded as
// admin.action and admin.auth_failure.
//
// # Architecture
//
// Logger queues events on a buffered channel and a single goroutine writes
// them to a Store, so recording never blocks the controller. When the queue
// is full the event is dropped and counted. Close drains the queue.
//
// BadgerStore is the durable backend. Keys sort by timestamp so queries
// iterate newest first and retention deletes a key prefix range. MemoryStore
// backs tests and the journal-disabled mode.
//
// # Usage
//
//	store, err := audit.OpenBadgerStore(cfg.Journal.Path)
//	journal := audit.NewLogger(store, audit.Config{Retention: 90 * 24 * time.Hour}, logger)
//	defer journal.Close()
//	ctrl := lockdown.NewController(..., lockdown.WithObserver(journal))
package audit
