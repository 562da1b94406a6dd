// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/notify"
)

// initNotify builds the guardian notification dispatcher. It returns nil
// when no notifier is configured.
func initNotify(cfg *config.Config) *notify.Dispatcher {
	var notifiers []notify.Notifier

	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:     cfg.Notify.WebhookURL,
			Headers: cfg.Notify.Headers,
			Timeout: cfg.Notify.Timeout,
		}))
		logging.Info().Msg("Webhook notifier registered")
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		notifiers = append(notifiers, notify.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL, cfg.Notify.Timeout))
		logging.Info().Msg("Discord notifier registered")
	}

	if len(notifiers) == 0 {
		logging.Info().Msg("No notifiers configured, guardian notifications disabled")
		return nil
	}

	dispatcherConfig := notify.DefaultDispatcherConfig()
	dispatcherConfig.RateLimit = cfg.Notify.RateLimit
	return notify.NewDispatcher(dispatcherConfig, logging.WithComponent("notify"), notifiers...)
}
