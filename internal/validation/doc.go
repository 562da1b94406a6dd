// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package validation wraps go-playground/validator v10 with a shared,
// lazily built validator and readable error messages.
//
// Field names in messages come from the koanf or json struct tag, so a
// config error reads "enforcement.tick_interval must be at least 100ms"
// style rather than using the Go field name.
//
// Custom tags:
//   - bcrypt: the string parses as a bcrypt hash (golang.org/x/crypto/bcrypt)
//
// Usage:
//
//	if verr := validation.ValidateStruct(&cfg.Enforcement); verr != nil {
//	    return fmt.Errorf("enforcement: %w", verr)
//	}
package validation
