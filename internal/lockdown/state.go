// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import (
	"math"
	"time"
)

// State is the persisted lock record.
type State struct {
	IsLocked bool `json:"is_locked"`
	// LockStartTime and LockEndTime are Unix epoch seconds.
	LockStartTime float64 `json:"lock_start_time"`
	LockEndTime   float64 `json:"lock_end_time"`
	// LockDuration is in seconds.
	LockDuration      float64    `json:"lock_duration"`
	IsBypass          bool       `json:"is_bypass"`
	ViolationCount    int        `json:"violation_count"`
	LastViolationTime *time.Time `json:"last_violation_time"`
}

// lockState is the controller's in-memory view. State is derived from it on
// every write.
type lockState struct {
	locked        bool
	bypass        bool
	start         time.Time
	end           time.Time
	duration      time.Duration
	count         int
	lastViolation *time.Time
}

func (s *lockState) record() State {
	st := State{
		IsLocked:       s.locked,
		IsBypass:       s.bypass,
		ViolationCount: s.count,
	}
	if s.locked {
		st.LockStartTime = epochSeconds(s.start)
		st.LockDuration = s.duration.Seconds()
		st.LockEndTime = st.LockStartTime + st.LockDuration
	}
	if s.lastViolation != nil {
		t := s.lastViolation.UTC()
		st.LastViolationTime = &t
	}
	return st
}

// clearLock drops the lock window, keeping the escalation fields.
func (s *lockState) clearLock() {
	s.locked = false
	s.bypass = false
	s.start = time.Time{}
	s.end = time.Time{}
	s.duration = 0
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
