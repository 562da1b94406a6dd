// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keystroke

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tomtom215/vigil/internal/metrics"
)

// DefaultBufferSize is the number of committed words kept before a forced
// match pass.
const DefaultBufferSize = 10

// spaceMarker trails the current word after a space key.
const spaceMarker = ' '

// Buffer holds the word being typed and the recently committed words.
type Buffer struct {
	current   []rune
	committed [][]rune
}

// Current returns the in-progress word, including a trailing space marker.
func (b *Buffer) Current() string {
	return string(b.current)
}

// Committed returns the committed words, oldest first.
func (b *Buffer) Committed() []string {
	out := make([]string, len(b.committed))
	for i, w := range b.committed {
		out[i] = string(w)
	}
	return out
}

// Reset discards both the committed words and the current word.
func (b *Buffer) Reset() {
	b.committed = nil
	b.current = nil
}

// commit moves current into committed, stripping one trailing space marker.
func (b *Buffer) commit() {
	w := b.current
	if n := len(w); n > 0 && w[n-1] == spaceMarker {
		w = w[:n-1]
	}
	b.committed = append(b.committed, w)
	b.current = nil
}

func (b *Buffer) endsWithSpace() bool {
	n := len(b.current)
	return n > 0 && b.current[n-1] == spaceMarker
}

// Segmenter applies key events to a Buffer and triggers match passes.
type Segmenter struct {
	buf        Buffer
	bufferSize int
	matcher    *Matcher
	caser      cases.Caser
	logger     zerolog.Logger
}

// NewSegmenter creates a Segmenter. A bufferSize below 1 uses DefaultBufferSize.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSegmenter(matcher *Matcher, bufferSize int, logger zerolog.Logger) *Segmenter {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	return &Segmenter{
		bufferSize: bufferSize,
		matcher:    matcher,
		caser:      cases.Lower(language.Und),
		logger:     logger,
	}
}

// Buffer exposes the segmenter's buffer for inspection.
func (s *Segmenter) Buffer() *Buffer {
	return &s.buf
}

// Handle applies one event. A faulty event is logged and skipped; the buffer
// keeps whatever state it reached. Panics are recovered and logged.
func (s *Segmenter) Handle(ctx context.Context, ev Event) (res MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("kind", ev.Kind.String()).
				Str("panic", fmt.Sprint(r)).
				Strs("committed", s.buf.Committed()).
				Msg("recovered from panic while handling key event")
			res = MatchResult{}
		}
	}()

	if _, known := kindNames[ev.Kind]; known {
		metrics.RecordKeyEvent(ev.Kind.String())
	} else {
		metrics.RecordKeyEvent("unknown")
	}

	switch ev.Kind {
	case KindCharacter:
		if ev.Char == 0 {
			s.logger.Warn().Msg("character event without a character, ignoring")
			return MatchResult{}
		}
		if s.buf.endsWithSpace() {
			s.buf.commit()
		}
		s.buf.current = append(s.buf.current, []rune(s.caser.String(string(ev.Char)))...)

	case KindSpace:
		s.buf.current = append(s.buf.current, spaceMarker)

	case KindBackspace:
		switch {
		case len(s.buf.current) > 0:
			s.buf.current = s.buf.current[:len(s.buf.current)-1]
		case len(s.buf.committed) > 0:
			last := len(s.buf.committed) - 1
			s.buf.current = s.buf.committed[last]
			s.buf.committed = s.buf.committed[:last]
		}

	case KindEnter:
		if len(s.buf.current) > 0 {
			s.buf.commit()
		}
		res = s.matcher.CheckBuffer(ctx, &s.buf, s.bufferSize)

	case KindOther:
		return MatchResult{}

	default:
		s.logger.Debug().Int("kind", int(ev.Kind)).Msg("unknown key event kind, ignoring")
		return MatchResult{}
	}

	if !res.Flushed && len(s.buf.committed) > s.bufferSize {
		res = s.matcher.CheckBuffer(ctx, &s.buf, s.bufferSize)
	}
	return res
}
