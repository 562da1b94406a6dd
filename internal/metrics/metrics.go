// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Lockdown state
	Locked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_locked",
			Help: "1 while a lockdown is active, 0 otherwise",
		},
	)

	ViolationCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_violation_count",
			Help: "Current escalation level (violation count)",
		},
	)

	LockRemainingSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_lock_remaining_seconds",
			Help: "Seconds until the active lockdown expires",
		},
	)

	ViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_violations_total",
			Help: "Total number of keyword violations that triggered a lock",
		},
	)

	BypassLocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_bypass_locks_total",
			Help: "Total number of bypass penalty locks",
		},
	)

	UnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_unlocks_total",
			Help: "Total number of unlocks",
		},
		[]string{"reason"}, // "expired", "admin", "shutdown"
	)

	DecayResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_decay_resets_total",
			Help: "Total number of escalation resets after a violation-free streak",
		},
	)

	// Enforcement
	EnforcementTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_enforcement_tick_duration_seconds",
			Help:    "Duration of one enforcement tick",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ProcessesKilledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_processes_killed_total",
			Help: "Total number of processes terminated during enforcement",
		},
		[]string{"name"},
	)

	OSActionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_os_action_errors_total",
			Help: "Total number of failed OS actions",
		},
		[]string{"action"},
	)

	// Input pipeline
	KeystrokeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_keystroke_events_total",
			Help: "Total number of key events processed",
		},
		[]string{"kind"},
	)

	BufferFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_buffer_flushes_total",
			Help: "Total number of keystroke buffer clears",
		},
		[]string{"reason"}, // "match", "overflow"
	)

	// Delivery
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_notifications_total",
			Help: "Total number of notification attempts",
		},
		[]string{"notifier", "result"}, // result: "success", "failure", "rate_limited", "rejected", "dropped"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	JournalEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_journal_events_total",
			Help: "Total number of journal events written",
		},
		[]string{"type"},
	)

	JournalDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_journal_dropped_total",
			Help: "Total number of journal events dropped because the queue was full",
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_api_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordLockState publishes the lock gauges.
func RecordLockState(locked bool, count int, remaining time.Duration) {
	if locked {
		Locked.Set(1)
	} else {
		Locked.Set(0)
	}
	ViolationCount.Set(float64(count))
	if remaining < 0 {
		remaining = 0
	}
	LockRemainingSeconds.Set(remaining.Seconds())
}

// RecordUnlock counts an unlock with its reason.
func RecordUnlock(reason string) {
	UnlocksTotal.WithLabelValues(reason).Inc()
}

// RecordTick observes one enforcement tick.
func RecordTick(duration time.Duration) {
	EnforcementTickDuration.Observe(duration.Seconds())
}

// RecordKill counts a terminated process.
func RecordKill(name string) {
	ProcessesKilledTotal.WithLabelValues(name).Inc()
}

// RecordOSActionError counts a failed OS action.
func RecordOSActionError(action string) {
	OSActionErrorsTotal.WithLabelValues(action).Inc()
}

// RecordKeyEvent counts a processed key event.
func RecordKeyEvent(kind string) {
	KeystrokeEventsTotal.WithLabelValues(kind).Inc()
}

// RecordBufferFlush counts a buffer clear.
func RecordBufferFlush(reason string) {
	BufferFlushesTotal.WithLabelValues(reason).Inc()
}

// RecordNotification counts a notification attempt.
func RecordNotification(notifier, result string) {
	NotificationsTotal.WithLabelValues(notifier, result).Inc()
}

// RecordAPIRequest counts an admin API request.
func RecordAPIRequest(method, route string, status int) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
