// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package auth guards the admin API.
//
// The agent has a single credential: an admin token whose bcrypt hash is
// stored in the configuration. TokenAuthenticator verifies presented
// tokens against that hash, and Lockout refuses a client for an
// exponentially growing period after repeated failures, so the hash cannot
// be brute forced from the local machine.
//
// Without a configured hash every mutating request is refused; the
// read-only endpoints stay open.
package auth
