// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/keystroke"
)

// ReplayMatch is one keyword hit found by replay.
type ReplayMatch struct {
	Line     int    `json:"line"`
	Word     string `json:"word"`
	Keyword  string `json:"keyword"`
	Distance int    `json:"distance"`
}

// ReplayResult summarises a replay run.
type ReplayResult struct {
	Keywords int           `json:"keywords"`
	Events   int           `json:"events"`
	Matches  []ReplayMatch `json:"matches"`
}

// Replay types text through a fresh segmenter and matcher. Every line ends
// with Enter, the same as a capture helper reporting a submitted line.
// Nothing is locked.
func Replay(ctx context.Context, bl *keystroke.Blocklist, bufferSize, maxDistance int, text string) ReplayResult {
	res := ReplayResult{Keywords: bl.Len(), Matches: []ReplayMatch{}}
	line := 1
	matcher := keystroke.NewMatcher(bl, func(_ context.Context, m keystroke.MatchResult) {
		res.Matches = append(res.Matches, ReplayMatch{Line: line, Word: m.Word, Keyword: m.Keyword, Distance: m.Distance})
	}, zerolog.Nop(), keystroke.WithMaxDistance(maxDistance))
	seg := keystroke.NewSegmenter(matcher, bufferSize, zerolog.Nop())

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	for _, ev := range keystroke.Type(text) {
		seg.Handle(ctx, ev)
		res.Events++
		if ev.Kind == keystroke.KindEnter {
			line++
		}
	}
	return res
}

func newReplayCommand(flags *globalFlags) *cobra.Command {
	var (
		keywords    []string
		bufferSize  int
		maxDistance int
	)
	cmd := &cobra.Command{
		Use:   "replay [text...]",
		Short: "Test text against the blocklist without locking",
		Long: `Type text through the keystroke matcher and report every keyword hit.
Reads standard input when no text is given. The blocklist comes from the
config file unless --keyword is set.`,
		Example: `  vigil replay "some typed words"
  vigil replay --keyword casino --max-distance 2 < chat.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kw config.KeywordsConfig
			if len(keywords) > 0 {
				kw = config.KeywordsConfig{Words: keywords, BufferSize: 10, MaxDistance: keystroke.DefaultMaxDistance}
			} else {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return fmt.Errorf("load configuration: %w", err)
				}
				kw = cfg.Keywords
			}
			if cmd.Flags().Changed("buffer-size") {
				kw.BufferSize = bufferSize
			}
			if cmd.Flags().Changed("max-distance") {
				kw.MaxDistance = maxDistance
			}
			if kw.BufferSize < 1 {
				return fmt.Errorf("--buffer-size must be at least 1")
			}

			bl, err := LoadBlocklist(kw)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				text = string(data)
			}

			res := Replay(cmd.Context(), bl, kw.BufferSize, kw.MaxDistance, text)
			out := cmd.OutOrStdout()
			if flags.jsonOutput {
				return printJSON(out, res)
			}
			if len(res.Matches) == 0 {
				fmt.Fprintf(out, "No matches (%d keywords, %d key events)\n", res.Keywords, res.Events)
				return nil
			}
			for _, m := range res.Matches {
				fmt.Fprintf(out, "line %d: %q matches %q (distance %d)\n", m.Line, m.Word, m.Keyword, m.Distance)
			}
			fmt.Fprintf(out, "%d match(es), each would trigger a lock\n", len(res.Matches))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&keywords, "keyword", nil, "keywords to test against instead of the configured blocklist")
	f.IntVar(&bufferSize, "buffer-size", 10, "committed words held before a forced match pass")
	f.IntVar(&maxDistance, "max-distance", keystroke.DefaultMaxDistance, "Levenshtein match threshold")
	return cmd
}
