// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package main is the entry point for the Vigil agent and its admin CLI.
//
// Vigil reads key events from a capture helper, segments them into words and
// compares each committed word against a keyword blocklist. A match locks the
// machine down for an escalating period: browsers are terminated every tick,
// the network adapters are disabled and a block-all firewall rule is added.
// The lock survives restarts and ends on expiry or an admin unlock.
//
// # Application Architecture
//
// "vigil run" initializes components in the following order:
//
//  1. Configuration: defaults, config file and environment (Koanf v2)
//  2. Event journal: BadgerDB store behind an async audit logger (optional)
//  3. Notifications: webhook and Discord notifiers behind circuit breakers
//  4. Lockdown controller: resumes an unexpired persisted lock
//  5. Key pipeline: blocklist, matcher and segmenter fed by stdin or NATS
//  6. NATS (optional): embedded broker, key subject and bypass reports
//  7. Admin API: chi router with token auth on 127.0.0.1
//  8. Supervisor tree: suture v4 runs every long-lived service
//
// # Key Sources
//
//	keys.source: stdin   one JSON key event per line on standard input
//	keys.source: nats    JSON key events on keys.nats_subject
//	keys.source: none    no key input; locks come from bypass reports only
//
// A key event is {"type":"character","char":"a"}, or a type of space,
// backspace or enter.
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree. The enforcement loop stops
// but the lock stays persisted, so the next start resumes it.
//
// # Example Usage
//
//	vigil hash-token --generate
//	export VIGIL_ADMIN_TOKEN_HASH='$2a$12$...'
//	export VIGIL_KEYWORDS=casino,poker
//	capture-helper | vigil run
//
//	vigil status
//	VIGIL_ADMIN_TOKEN=... vigil unlock
package main

import (
	"os"

	"github.com/tomtom215/vigil/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.Options{
		Version: version,
		Run:     runAgent,
	}))
}
