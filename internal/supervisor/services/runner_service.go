// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Runner is a component with a blocking Run. Satisfied by
// *keysource.BypassListener.
type Runner interface {
	Run(ctx context.Context) error
	String() string
}

// RunnerService supervises a Runner.
type RunnerService struct {
	runner Runner
}

// NewRunnerService wraps runner.
func NewRunnerService(runner Runner) *RunnerService {
	return &RunnerService{runner: runner}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", s.runner, err)
	}
	return fmt.Errorf("%s stopped", s.runner)
}

// String implements fmt.Stringer.
func (s *RunnerService) String() string {
	return s.runner.String()
}

// Broker is the lifecycle of an in-process message broker. Satisfied by
// *keysource.EmbeddedServer.
type Broker interface {
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// BrokerService owns an already started broker: it reports the broker
// dying and shuts it down with the tree.
type BrokerService struct {
	broker          Broker
	checkInterval   time.Duration
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewBrokerService wraps broker.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBrokerService(broker Broker, shutdownTimeout time.Duration, logger zerolog.Logger) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		broker:          broker,
		checkInterval:   5 * time.Second,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Serve implements suture.Service. A broker that died cannot be restarted
// in place, so the service then stops for good.
func (s *BrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("embedded NATS shutdown: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.IsRunning() {
				s.logger.Error().Msg("Embedded NATS server stopped unexpectedly")
				return suture.ErrDoNotRestart
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *BrokerService) String() string {
	return "embedded-nats"
}

// Stopper is satisfied by *lockdown.Controller.
type Stopper interface {
	Stop(ctx context.Context) error
}

// ControllerService stops the enforcement loop when the tree shuts down.
// The lock stays persisted and is resumed on the next start.
type ControllerService struct {
	ctrl    Stopper
	timeout time.Duration
}

// NewControllerService wraps ctrl.
func NewControllerService(ctrl Stopper, timeout time.Duration) *ControllerService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ControllerService{ctrl: ctrl, timeout: timeout}
}

// Serve blocks until ctx is canceled, then stops the controller.
func (s *ControllerService) Serve(ctx context.Context) error {
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.ctrl.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop controller: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *ControllerService) String() string {
	return "lockdown-controller"
}
