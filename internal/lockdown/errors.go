// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package lockdown

import "errors"

var (
	// ErrStateNotFound means no lock record exists.
	ErrStateNotFound = errors.New("lock state not found")

	// ErrStateCorrupt means a lock record exists but cannot be decoded.
	ErrStateCorrupt = errors.New("lock state corrupt")
)
