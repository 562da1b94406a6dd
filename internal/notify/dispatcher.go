// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vigil/internal/lockdown"
	"github.com/tomtom215/vigil/internal/metrics"
)

// DispatcherConfig configures delivery.
type DispatcherConfig struct {
	// RateLimit is the minimum gap between two sends to one notifier.
	// Zero disables limiting.
	RateLimit time.Duration

	// QueueSize is the number of messages waiting for delivery.
	QueueSize int

	// FailureThreshold is the number of consecutive failures that opens
	// a notifier's breaker.
	FailureThreshold uint32

	// OpenTimeout is how long an open breaker rejects sends before it
	// lets one probe through.
	OpenTimeout time.Duration

	// SendTimeout bounds one delivery to all notifiers.
	SendTimeout time.Duration
}

// DefaultDispatcherConfig returns the defaults used by the agent.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		RateLimit:        time.Second,
		QueueSize:        64,
		FailureThreshold: 3,
		OpenTimeout:      5 * time.Minute,
		SendTimeout:      30 * time.Second,
	}
}

type target struct {
	notifier Notifier
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// Dispatcher fans messages out to notifiers.
type Dispatcher struct {
	config  DispatcherConfig
	targets []*target
	queue   chan *Message
	logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher for notifiers.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDispatcher(config DispatcherConfig, logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}

	d := &Dispatcher{
		config: config,
		queue:  make(chan *Message, config.QueueSize),
		logger: logger.With().Str("component", "notify").Logger(),
	}
	for _, n := range notifiers {
		d.targets = append(d.targets, d.newTarget(n))
	}
	return d
}

func (d *Dispatcher) newTarget(n Notifier) *target {
	limit := rate.Inf
	if d.config.RateLimit > 0 {
		limit = rate.Every(d.config.RateLimit)
	}

	name := "notify-" + n.Name()
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     d.config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= d.config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			// gobreaker orders its states closed, half-open, open.
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			d.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Notifier circuit breaker changed state")
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &target{
		notifier: n,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  breaker,
	}
}

// Notifiers returns the names of the configured notifiers.
func (d *Dispatcher) Notifiers() []string {
	names := make([]string, 0, len(d.targets))
	for _, t := range d.targets {
		names = append(names, t.notifier.Name())
	}
	return names
}

// Observe queues a message for a controller transition. It implements
// lockdown.Observer and never blocks.
func (d *Dispatcher) Observe(_ context.Context, ev lockdown.Event) {
	if len(d.targets) == 0 {
		return
	}
	msg, ok := MessageFor(ev)
	if !ok {
		return
	}
	select {
	case d.queue <- msg:
	default:
		metrics.RecordNotification("dispatcher", "dropped")
		d.logger.Warn().Str("kind", string(msg.Kind)).Msg("Notification queue full, dropping message")
	}
}

// Deliver sends msg to every notifier and joins their errors.
func (d *Dispatcher) Deliver(ctx context.Context, msg *Message) error {
	var errs []error
	for _, t := range d.targets {
		if err := d.deliverTo(ctx, t, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverTo(ctx context.Context, t *target, msg *Message) error {
	name := t.notifier.Name()
	if err := t.limiter.Wait(ctx); err != nil {
		metrics.RecordNotification(name, "rate_limited")
		return fmt.Errorf("rate limited: %w", err)
	}

	_, err := t.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, t.notifier.Send(ctx, msg)
	})
	switch {
	case err == nil:
		metrics.RecordNotification(name, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNotification(name, "rejected")
		return err
	default:
		metrics.RecordNotification(name, "failure")
		return err
	}
}

// Serve delivers queued messages until ctx is cancelled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.logger.Info().Strs("notifiers", d.Notifiers()).Msg("Notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Notification dispatcher stopped")
			return ctx.Err()
		case msg := <-d.queue:
			sctx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
			if err := d.Deliver(sctx, msg); err != nil {
				d.logger.Warn().Err(err).Str("kind", string(msg.Kind)).Msg("Notification delivery failed")
			}
			cancel()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "notify-dispatcher"
}

var _ lockdown.Observer = (*Dispatcher)(nil)
