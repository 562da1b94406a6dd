// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keystroke

import (
	"context"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tomtom215/vigil/internal/metrics"
)

// DefaultMaxDistance is the fuzzy match threshold.
const DefaultMaxDistance = 1

// ViolationFunc is called once per detected keyword.
type ViolationFunc func(ctx context.Context, m MatchResult)

// MatchResult describes the outcome of one match pass.
type MatchResult struct {
	Matched  bool
	Word     string
	Keyword  string
	Distance int
	// Flushed is set when the buffer was cleared, by a match or by overflow.
	Flushed bool
}

// Matcher compares committed words against a Blocklist.
type Matcher struct {
	blocklist   *Blocklist
	maxDistance int
	onViolation ViolationFunc
	caser       cases.Caser
	logger      zerolog.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithMaxDistance sets the Levenshtein threshold. Negative values are ignored.
func WithMaxDistance(d int) MatcherOption {
	return func(m *Matcher) {
		if d >= 0 {
			m.maxDistance = d
		}
	}
}

// NewMatcher creates a Matcher that calls onViolation on the first match of
// each pass.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMatcher(bl *Blocklist, onViolation ViolationFunc, logger zerolog.Logger, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		blocklist:   bl,
		maxDistance: DefaultMaxDistance,
		onViolation: onViolation,
		caser:       cases.Lower(language.Und),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match reports whether word matches any keyword, returning the first one in
// blocklist order.
func (m *Matcher) Match(word string) (keyword string, distance int, ok bool) {
	if word == "" {
		return "", 0, false
	}
	word = m.caser.String(word)
	for _, kw := range m.blocklist.words {
		if word == kw {
			return kw, 0, true
		}
		if d := levenshtein.ComputeDistance(word, kw); d <= m.maxDistance {
			return kw, d, true
		}
	}
	return "", 0, false
}

// CheckBuffer runs a match pass over the committed words of b, oldest first.
// On the first match it fires the violation callback, clears b and returns.
// Without a match, b is cleared anyway once it holds bufferSize words.
func (m *Matcher) CheckBuffer(ctx context.Context, b *Buffer, bufferSize int) MatchResult {
	for _, chars := range b.committed {
		if len(chars) == 0 {
			continue
		}
		word := string(chars)
		kw, dist, ok := m.Match(word)
		if !ok {
			continue
		}

		res := MatchResult{Matched: true, Word: m.caser.String(word), Keyword: kw, Distance: dist, Flushed: true}
		m.logger.Warn().
			Str("keyword", kw).
			Int("distance", dist).
			Msg("blocklisted keyword detected")
		b.Reset()
		metrics.RecordBufferFlush("match")
		if m.onViolation != nil {
			m.onViolation(ctx, res)
		}
		return res
	}

	if len(b.committed) >= bufferSize {
		m.logger.Debug().Int("words", len(b.committed)).Msg("buffer full without match, clearing")
		b.Reset()
		metrics.RecordBufferFlush("overflow")
		return MatchResult{Flushed: true}
	}
	return MatchResult{}
}
