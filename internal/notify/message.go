// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vigil/internal/lockdown"
)

// Severity of a message.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Message is one notification.
type Message struct {
	Kind           lockdown.EventKind `json:"kind"`
	Title          string             `json:"title"`
	Text           string             `json:"text"`
	Severity       Severity           `json:"severity"`
	Time           time.Time          `json:"time"`
	EpisodeID      string             `json:"episode_id,omitempty"`
	ViolationCount int                `json:"violation_count"`
	Until          *time.Time         `json:"until,omitempty"`
	Reason         string             `json:"reason,omitempty"`
}

// Notifier delivers messages to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// MessageFor builds the message for a controller transition. ok is false
// for kinds that are not announced.
func MessageFor(ev lockdown.Event) (msg *Message, ok bool) {
	msg = &Message{
		Kind:           ev.Kind,
		Time:           ev.Time,
		EpisodeID:      ev.EpisodeID,
		ViolationCount: ev.ViolationCount,
		Reason:         ev.Reason,
	}
	if !ev.Until.IsZero() {
		until := ev.Until
		msg.Until = &until
	}

	switch ev.Kind {
	case lockdown.EventViolation:
		msg.Title = "System locked"
		msg.Severity = SeverityCritical
		msg.Text = fmt.Sprintf("A blocked keyword was typed. Locked for %s until %s.",
			ev.Duration, ev.Until.Format(time.RFC1123))
	case lockdown.EventBypass:
		msg.Title = "Bypass attempt"
		msg.Severity = SeverityCritical
		msg.Text = fmt.Sprintf("A bypass attempt was reported (%s). Penalty lock of %s until %s.",
			ev.Reason, ev.Duration, ev.Until.Format(time.RFC1123))
	case lockdown.EventReapplied:
		msg.Title = "Lock resumed"
		msg.Severity = SeverityWarning
		msg.Text = fmt.Sprintf("The agent restarted during a lock. %s remaining.", ev.Duration)
	case lockdown.EventUnlocked:
		msg.Title = "System unlocked"
		msg.Severity = SeverityInfo
		msg.Text = fmt.Sprintf("The lock ended (%s).", ev.Reason)
	case lockdown.EventDecayReset:
		msg.Title = "Escalation reset"
		msg.Severity = SeverityInfo
		msg.Text = "A violation-free week reset the lock duration to the first step."
	case lockdown.EventManualReset:
		msg.Title = "Escalation reset by administrator"
		msg.Severity = SeverityWarning
		msg.Text = "The violation count was reset manually."
	default:
		return nil, false
	}
	return msg, true
}
