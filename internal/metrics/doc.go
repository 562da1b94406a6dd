// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package metrics registers the agent's Prometheus instruments.

All collectors are package-level promauto variables registered with the default
registry; the admin API exposes them at /metrics:

	curl http://127.0.0.1:7391/metrics

# Lockdown

  - vigil_locked, vigil_violation_count, vigil_lock_remaining_seconds (gauges)
  - vigil_violations_total, vigil_bypass_locks_total, vigil_unlocks_total{reason}
  - vigil_decay_resets_total
  - vigil_enforcement_tick_duration_seconds (histogram)
  - vigil_processes_killed_total{name}, vigil_os_action_errors_total{action}

# Input

  - vigil_keystroke_events_total{kind}
  - vigil_buffer_flushes_total{reason}

# Delivery

  - vigil_notifications_total{notifier,result}
  - vigil_circuit_breaker_state{name}
  - vigil_journal_events_total{type}, vigil_journal_dropped_total
  - vigil_api_requests_total{method,route,status}

Callers use the Record* helpers rather than touching the vectors directly so
label values stay consistent.
*/
package metrics
