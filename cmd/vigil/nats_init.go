// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/keysource"
	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/supervisor"
	"github.com/tomtom215/vigil/internal/supervisor/services"
)

// natsHandle is the NATS connection shared by the key source and the
// bypass listener.
type natsHandle struct {
	conn *nats.Conn
}

// initNATS starts the embedded broker when configured and connects to NATS.
// It returns nil when neither the key source nor the embedded broker needs
// NATS.
func initNATS(cfg *config.Config, tree *supervisor.SupervisorTree) (*natsHandle, error) {
	if cfg.Keys.Source != "nats" && !cfg.NATS.Embedded {
		return nil, nil
	}

	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		broker, err := keysource.NewEmbeddedServer(cfg.NATS.Host, cfg.NATS.Port, logging.WithComponent("nats-server"))
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		url = broker.ClientURL()
		tree.AddInputService(services.NewBrokerService(broker, cfg.Supervisor.ShutdownTimeout,
			logging.WithComponent("nats-server")))
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	conn, err := keysource.Connect(url, cfg.NATS.Name, logging.WithComponent("nats"))
	if err != nil {
		return nil, err
	}
	logging.Info().Str("url", url).Msg("NATS client created")
	return &natsHandle{conn: conn}, nil
}

// close drains the connection. Safe on nil.
func (n *natsHandle) close() {
	if n == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

// initKeySource selects where key events come from. It returns nil for
// keys.source=none.
func initKeySource(cfg *config.Config, n *natsHandle) (keysource.Source, error) {
	logger := logging.WithComponent("keysource")
	switch cfg.Keys.Source {
	case "stdin":
		return keysource.NewReader(os.Stdin, "stdin", logger), nil
	case "nats":
		if n == nil {
			return nil, errors.New("keys.source=nats without a NATS connection")
		}
		return keysource.NewNATS(n.conn, cfg.Keys.NATSSubject, logger), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown key source %q", cfg.Keys.Source)
	}
}

// initBypassListener subscribes to bypass reports when NATS is in use.
func initBypassListener(cfg *config.Config, n *natsHandle, ctrl *lockdown.Controller, tree *supervisor.SupervisorTree) {
	if n == nil || cfg.Keys.BypassSubject == "" {
		logging.Info().Msg("Bypass reports over NATS disabled")
		return
	}
	listener := keysource.NewBypassListener(n.conn, cfg.Keys.BypassSubject,
		func(ctx context.Context, source string) {
			ctrl.TriggerBypass(ctx, source)
		},
		logging.WithComponent("bypass"),
	)
	tree.AddInputService(services.NewRunnerService(listener))
	logging.Info().Str("subject", cfg.Keys.BypassSubject).Msg("Bypass listener added to supervisor tree")
}
