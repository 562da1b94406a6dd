// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keysource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
)

// EmbeddedServer is an in-process NATS broker bound to a local address.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts a broker on host:port. A port of -1 picks a free
// one. It fails if the broker is not ready within 10 seconds.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEmbeddedServer(host string, port int, logger zerolog.Logger) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "vigil",
		Host:       host,
		Port:       port,
		NoSigs:     true,
		MaxPayload: 64 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(&natsLogger{logger: logger}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the URL clients connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the broker, waiting until it is down or ctx ends.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		s.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the broker accepts connections.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// natsLogger routes broker logs into zerolog.
type natsLogger struct {
	logger zerolog.Logger
}

func (l *natsLogger) Noticef(format string, v ...any) { l.logger.Info().Msgf(format, v...) }
func (l *natsLogger) Warnf(format string, v ...any)   { l.logger.Warn().Msgf(format, v...) }
func (l *natsLogger) Fatalf(format string, v ...any)  { l.logger.Error().Msgf(format, v...) }
func (l *natsLogger) Errorf(format string, v ...any)  { l.logger.Error().Msgf(format, v...) }
func (l *natsLogger) Debugf(format string, v ...any)  { l.logger.Debug().Msgf(format, v...) }
func (l *natsLogger) Tracef(format string, v ...any)  { l.logger.Trace().Msgf(format, v...) }
