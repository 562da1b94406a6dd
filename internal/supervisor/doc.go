// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package supervisor runs the agent's long-lived services under suture v4.

	vigil
	├── input-layer
	│   ├── KeystrokeService       key source -> segmenter -> matcher
	│   ├── RunnerService          NATS bypass listener (optional)
	│   └── BrokerService          embedded NATS server (optional)
	├── control-layer
	│   ├── DecayService           independent escalation decay timer
	│   ├── RetentionService       journal cleanup and value log GC
	│   ├── notify.Dispatcher      guardian notifications
	│   └── ControllerService      stops the enforcement loop on shutdown
	└── api-layer
	    └── HTTPServerService      admin API

Crashed services restart with suture's backoff; each layer counts failures
on its own. A key source that reaches the end of its input returns
suture.ErrDoNotRestart so a closed stdin does not spin.

Supervisor events are logged through sutureslog with the slog bridge from
internal/logging, so they share the zerolog output.

The lock itself is not a supervised service. The controller owns its
enforcement goroutine and survives restarts of everything above; only
ControllerService.Serve returning on shutdown stops it, and then without
unlocking so the persisted lock resumes on the next start.
*/
package supervisor
