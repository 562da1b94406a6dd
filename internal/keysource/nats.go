// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keysource

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/keystroke"
)

// subscriptionBuffer is the channel depth between the NATS client and Run.
const subscriptionBuffer = 256

// Connect dials a NATS server, retrying in the background if it is not up
// yet and reconnecting forever once connected.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Connect(url, name string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATS reads key events from a subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATS creates a NATS source on an established connection.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewNATS(conn *nats.Conn, subject string, logger zerolog.Logger) *NATS {
	return &NATS{conn: conn, subject: subject, logger: logger}
}

// String implements fmt.Stringer.
func (n *NATS) String() string {
	return "nats:" + n.subject
}

// Run implements Source. The subscription is removed when Run returns.
func (n *NATS) Run(ctx context.Context, out chan<- keystroke.Event) error {
	msgs := make(chan *nats.Msg, subscriptionBuffer)
	sub, err := n.conn.ChanSubscribe(n.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", n.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	n.logger.Info().Str("subject", n.subject).Msg("Listening for key events")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			if err := deliver(ctx, msg.Data, out, n.logger); err != nil {
				return err
			}
		}
	}
}

var _ Source = (*NATS)(nil)

// BypassFunc handles one bypass report. source names the reporter.
type BypassFunc func(ctx context.Context, source string)

type bypassReport struct {
	Source string `json:"source"`
}

// BypassListener subscribes to bypass reports.
type BypassListener struct {
	conn    *nats.Conn
	subject string
	handle  BypassFunc
	logger  zerolog.Logger
}

// NewBypassListener creates a listener calling handle per report.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBypassListener(conn *nats.Conn, subject string, handle BypassFunc, logger zerolog.Logger) *BypassListener {
	return &BypassListener{conn: conn, subject: subject, handle: handle, logger: logger}
}

// String implements fmt.Stringer.
func (b *BypassListener) String() string {
	return "bypass:" + b.subject
}

// Run subscribes and dispatches reports until ctx is canceled. An empty or
// unparseable body is still a report, attributed to the subject.
func (b *BypassListener) Run(ctx context.Context) error {
	msgs := make(chan *nats.Msg, 16)
	sub, err := b.conn.ChanSubscribe(b.subject, msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.subject, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			source := "nats:" + b.subject
			var report bypassReport
			if len(msg.Data) > 0 && json.Unmarshal(msg.Data, &report) == nil && report.Source != "" {
				source = report.Source
			}
			b.logger.Warn().Str("source", source).Msg("Bypass report received")
			b.handle(ctx, source)
		}
	}
}
