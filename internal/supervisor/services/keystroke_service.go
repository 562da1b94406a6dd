// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/vigil/internal/keysource"
	"github.com/tomtom215/vigil/internal/keystroke"
)

// KeyHandler consumes key events. Satisfied by *keystroke.Segmenter.
type KeyHandler interface {
	Handle(ctx context.Context, ev keystroke.Event) keystroke.MatchResult
}

// KeystrokeService feeds events from a source into a handler on one
// goroutine, so the handler needs no locking of its own.
type KeystrokeService struct {
	source  keysource.Source
	handler KeyHandler
	buffer  int
	logger  zerolog.Logger
}

// NewKeystrokeService creates the pipeline service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewKeystrokeService(source keysource.Source, handler KeyHandler, logger zerolog.Logger) *KeystrokeService {
	return &KeystrokeService{
		source:  source,
		handler: handler,
		buffer:  64,
		logger:  logger,
	}
}

// Serve implements suture.Service. The end of the input stops the service
// for good; any other source error restarts it.
func (s *KeystrokeService) Serve(ctx context.Context) error {
	events := make(chan keystroke.Event, s.buffer)
	errCh := make(chan error, 1)
	go func() { errCh <- s.source.Run(ctx, events) }()

	s.logger.Info().Str("source", s.source.String()).Msg("Key event pipeline started")

	for {
		select {
		case ev := <-events:
			s.handler.Handle(ctx, ev)
		case err := <-errCh:
			s.drain(ctx, events)
			return s.finish(ctx, err)
		}
	}
}

// drain handles events the source queued before returning.
func (s *KeystrokeService) drain(ctx context.Context, events <-chan keystroke.Event) {
	for {
		select {
		case ev := <-events:
			s.handler.Handle(ctx, ev)
		default:
			return
		}
	}
}

func (s *KeystrokeService) finish(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, keysource.ErrEndOfInput):
		s.logger.Info().Str("source", s.source.String()).Msg("Key event input ended")
		return suture.ErrDoNotRestart
	case err == nil:
		return fmt.Errorf("key source %s stopped", s.source)
	default:
		s.logger.Warn().Err(err).Str("source", s.source.String()).Msg("Key source failed")
		return fmt.Errorf("key source %s: %w", s.source, err)
	}
}

// String implements fmt.Stringer.
func (s *KeystrokeService) String() string {
	return "keystroke-pipeline"
}
