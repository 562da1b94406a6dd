// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"time"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/lockdown"
)

// StatusResponse is the wire form of lockdown.Status.
type StatusResponse struct {
	Locked           bool       `json:"locked"`
	Bypass           bool       `json:"bypass"`
	ViolationCount   int        `json:"violation_count"`
	LockStart        *time.Time `json:"lock_start,omitempty"`
	LockEnd          *time.Time `json:"lock_end,omitempty"`
	DurationSeconds  float64    `json:"duration_seconds,omitempty"`
	RemainingSeconds float64    `json:"remaining_seconds"`
	LastViolation    *time.Time `json:"last_violation,omitempty"`
	LoopAlive        bool       `json:"loop_alive"`
	EpisodeID        string     `json:"episode_id,omitempty"`
}

// NewStatusResponse converts a controller snapshot.
func NewStatusResponse(s lockdown.Status) StatusResponse {
	resp := StatusResponse{
		Locked:           s.Locked,
		Bypass:           s.Bypass,
		ViolationCount:   s.ViolationCount,
		RemainingSeconds: s.Remaining.Seconds(),
		LastViolation:    s.LastViolation,
		LoopAlive:        s.LoopAlive,
		EpisodeID:        s.EpisodeID,
	}
	if s.Locked {
		start, end := s.LockStart, s.LockEnd
		resp.LockStart = &start
		resp.LockEnd = &end
		resp.DurationSeconds = s.Duration.Seconds()
	}
	return resp
}

// Remaining returns RemainingSeconds as a duration.
func (s StatusResponse) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds * float64(time.Second))
}

// UnlockResponse reports the outcome of an unlock request.
type UnlockResponse struct {
	WasLocked bool           `json:"was_locked"`
	Status    StatusResponse `json:"status"`
}

// BypassRequest reports a bypass attempt.
type BypassRequest struct {
	Source string `json:"source" validate:"omitempty,max=128,printascii"`
}

// EventsResponse is a page of journal events.
type EventsResponse struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Locked    bool   `json:"locked"`
	LoopAlive bool   `json:"loop_alive"`
	Journal   bool   `json:"journal"`
	Version   string `json:"version,omitempty"`
}

// eventsQuery holds validated /events parameters.
type eventsQuery struct {
	Types     []string   `json:"type" validate:"dive,oneof=lock.violation lock.bypass lock.reapplied lock.unlocked escalation.decay_reset escalation.manual_reset admin.action admin.auth_failure"`
	EpisodeID string     `json:"episode_id" validate:"omitempty,max=64"`
	Since     *time.Time `json:"since"`
	Until     *time.Time `json:"until"`
	Limit     int        `json:"limit" validate:"gte=1,lte=1000"`
	Offset    int        `json:"offset" validate:"gte=0"`
}

func (q *eventsQuery) filter() audit.QueryFilter {
	f := audit.QueryFilter{
		EpisodeID: q.EpisodeID,
		StartTime: q.Since,
		EndTime:   q.Until,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	for _, t := range q.Types {
		f.Types = append(f.Types, audit.EventType(t))
	}
	return f
}
