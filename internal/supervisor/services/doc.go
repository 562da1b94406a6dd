// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package services adapts agent components to suture.Service.

Each wrapper translates a component's own lifecycle (ListenAndServe,
Run, Shutdown, a periodic check) into Serve(ctx) error and names itself
through fmt.Stringer for supervisor logs.

  - KeystrokeService pumps a keysource.Source into the segmenter
  - DecayService calls CheckDecay on its own timer
  - RetentionService prunes the journal and runs badger value log GC
  - RunnerService wraps any Run(ctx) error, used for the bypass listener
  - BrokerService owns the embedded NATS server
  - ControllerService stops the enforcement loop on shutdown
  - HTTPServerService runs the admin API with graceful shutdown

Periodic services take a clockwork.Clock so tests drive them with a fake
clock.
*/
package services
