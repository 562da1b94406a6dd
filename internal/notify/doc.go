// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package notify tells a guardian about lock transitions.
//
// Dispatcher observes the lockdown controller, queues one Message per
// transition and delivers it to every configured Notifier from its own
// goroutine, so a slow endpoint never stalls enforcement. Each notifier is
// wrapped in a rate limiter and a circuit breaker: three consecutive
// failures open the breaker and later messages are rejected until it
// half-opens again.
//
// WebhookNotifier posts a generic JSON document; DiscordNotifier posts an
// embed to a Discord webhook.
package notify
