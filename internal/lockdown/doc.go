// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package lockdown implements the lock state machine and its enforcement loop.

A Controller owns the single lock state of the agent. It decides how long a
lock lasts, keeps the system restricted while it does, persists every
transition, and lifts the restrictions when the lock ends.

# State Machine

The controller is either unlocked (the initial state) or locked:

	          TriggerViolation / TriggerBypass
	UNLOCKED ──────────────────────────────────▶ LOCKED
	    ▲                                          │
	    └──────── Unlock / window expired ─────────┘

TriggerViolation locks for a duration taken from the escalation table at
the current violation count and then increments the count. TriggerBypass
locks for the fixed bypass penalty without touching the count. Locking while
already locked updates the lock window in place; the running enforcement
loop picks up the new end time on its next tick and no second loop starts.

Unlock is idempotent. It is called by the loop when the window has passed
and by the admin API as an override.

# Escalation and Decay

DefaultPolicy mirrors the shipped configuration:

	violation count   1    2    3    4    5+
	lock duration     2h   4h   8h   16h  24h
	bypass penalty    48h  (count unchanged)
	decay window      7 days without a violation resets the count to 1

CheckDecay applies the decay rule. It runs on unlock, on reapply and from
the periodic decay service in internal/supervisor/services.

# Enforcement Loop

While locked, one goroutine per lock episode:
 1. Disables the configured network adapters and adds the block-all
    firewall rule.
 2. Ticks every TickInterval. Each tick lists processes once (names only)
    and fans the kill scans out over an errgroup bounded by Workers.
 3. Unlocks when the lock window has passed.

Every OS call gets its own ActionTimeout, so one slow call cannot starve
the calls after it. On unlock the network is released before the shell
check runs. Killed PIDs are remembered for the episode and not killed again.

A generation counter ties each loop to the lock it was started for. A loop
that outlives its lock never unlocks or restricts on behalf of a newer one.

# Persistence

Every transition is written through a Store. FileStore keeps one JSON
record and replaces it atomically (temp file, fsync, rename):

	{
	  "is_locked": true,
	  "lock_start_time": 1767873600.0,
	  "lock_end_time": 1767880800.0,
	  "lock_duration": 7200.0,
	  "is_bypass": false,
	  "violation_count": 2,
	  "last_violation_time": "2026-01-08T12:00:00Z"
	}

CheckAndReapplyLock reads that record at startup and resumes an unexpired
lock for its remaining time, so a reboot does not end a lock. An expired
record restores the escalation fields, lifts any restrictions a crash left
behind and is deleted. A missing record resets the count to 1 only on a
fresh controller; a corrupt record is discarded and the count kept.

# Usage Example

	store := lockdown.NewFileStore(filepath.Join(dataDir, "lockdown.json"))
	ctrl := lockdown.NewController(store, osactions.NewSystem(logger), logger,
	    lockdown.WithPolicy(lockdown.DefaultPolicy()),
	    lockdown.WithObserver(journal),
	)
	ctrl.CheckAndReapplyLock(ctx)

	// From the keystroke pipeline:
	ctrl.TriggerViolation(ctx, "keystroke")

	// On shutdown the loop stops but the persisted lock remains:
	_ = ctrl.Stop(ctx)

# Error Handling

OS and persistence failures are logged and counted in
vigil_os_action_errors_total; they never abort a transition. The in-memory
state stays authoritative.

# Thread Safety

All Controller methods are safe for concurrent use. State is guarded by one
mutex; observers are called after it is released.
*/
package lockdown
