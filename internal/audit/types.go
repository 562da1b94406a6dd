// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes journal events.
type EventType string

const (
	// Lock transitions
	EventTypeViolation EventType = "lock.violation"
	EventTypeBypass    EventType = "lock.bypass"
	EventTypeReapplied EventType = "lock.reapplied"
	EventTypeUnlocked  EventType = "lock.unlocked"

	// Escalation changes
	EventTypeDecayReset  EventType = "escalation.decay_reset"
	EventTypeManualReset EventType = "escalation.manual_reset"

	// Admin API
	EventTypeAdminAction EventType = "admin.action"
	EventTypeAuthFailure EventType = "admin.auth_failure"
)

// Severity indicates how much attention an event deserves.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ErrEventNotFound is returned by Get for an unknown ID.
var ErrEventNotFound = errors.New("journal event not found")

// Event is one journal entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`

	// EpisodeID links the events of one lock episode.
	EpisodeID string `json:"episode_id,omitempty"`

	ViolationCount  int        `json:"violation_count"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	Until           *time.Time `json:"until,omitempty"`
	Bypass          bool       `json:"bypass,omitempty"`

	// Reason is the trigger source or the unlock cause.
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description"`

	// RequestID is set for events caused by an admin API request.
	RequestID  string `json:"request_id,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`

	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Store persists journal events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Get returns ErrEventNotFound for an unknown ID.
	Get(ctx context.Context, id string) (*Event, error)

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes events older than olderThan and returns how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter selects journal events.
type QueryFilter struct {
	Types     []EventType `json:"types,omitempty"`
	EpisodeID string      `json:"episode_id,omitempty"`

	// StartTime and EndTime bound the timestamp, inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns the 100 newest events.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// Matches reports whether event passes the filter. Limit and Offset are
// not considered.
func (f *QueryFilter) Matches(event *Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.EpisodeID != "" && event.EpisodeID != f.EpisodeID {
		return false
	}
	if f.StartTime != nil && event.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && event.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}
