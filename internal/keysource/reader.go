// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keysource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/keystroke"
	"github.com/tomtom215/vigil/internal/metrics"
)

// ErrEndOfInput is returned by Run when the underlying stream ends.
var ErrEndOfInput = errors.New("key event input closed")

// maxLine bounds a single JSON line.
const maxLine = 64 * 1024

// Source delivers key events in arrival order.
type Source interface {
	// Run sends events to out until the input ends or ctx is canceled.
	Run(ctx context.Context, out chan<- keystroke.Event) error
	String() string
}

// Reader reads newline-delimited JSON events from an io.Reader.
type Reader struct {
	r      io.Reader
	name   string
	logger zerolog.Logger
}

// NewReader creates a Reader. name identifies the stream in logs.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewReader(r io.Reader, name string, logger zerolog.Logger) *Reader {
	return &Reader{r: r, name: name, logger: logger}
}

// String implements fmt.Stringer.
func (r *Reader) String() string {
	return "reader:" + r.name
}

// Run implements Source. It returns ErrEndOfInput at EOF. A blocked read is
// not interruptible, so on cancellation the scanning goroutine is left to
// finish with the stream.
func (r *Reader) Run(ctx context.Context, out chan<- keystroke.Event) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.r)
		sc.Buffer(make([]byte, 0, 4096), maxLine)
		for sc.Scan() {
			line := bytes.Clone(sc.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read %s: %w", r.name, err)
					}
				default:
				}
				return ErrEndOfInput
			}
			if err := deliver(ctx, line, out, r.logger); err != nil {
				return err
			}
		}
	}
}

// deliver decodes one payload and forwards it. Only cancellation is an error.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func deliver(ctx context.Context, payload []byte, out chan<- keystroke.Event, logger zerolog.Logger) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil
	}
	ev, err := Decode(payload)
	if err != nil {
		metrics.RecordKeyEvent("malformed")
		logger.Warn().Err(err).Int("bytes", len(payload)).Msg("Skipping malformed key event")
		return nil
	}
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Source = (*Reader)(nil)
