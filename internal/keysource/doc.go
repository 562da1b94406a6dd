// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package keysource delivers key events from an external capture helper.
//
// The agent does not hook the keyboard itself. A helper process observes
// key presses and emits one JSON object per event:
//
//	{"type":"character","char":"a"}
//	{"type":"space"}
//	{"type":"backspace"}
//	{"type":"enter"}
//
// Any other type decodes as an ignored event. Reader consumes the objects
// as newline-delimited JSON from a stream such as stdin or a named pipe.
// NATS consumes them as messages on a subject. Both send decoded events on
// a channel in arrival order; malformed lines are logged and skipped.
//
// BypassListener subscribes to the watchdog's bypass reports and turns each
// one into a callback. EmbeddedServer runs an in-process NATS broker for
// setups without one.
package keysource
