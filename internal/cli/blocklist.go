// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package cli

import (
	"errors"

	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/keystroke"
)

// ErrEmptyBlocklist is returned when no keyword survives normalisation.
var ErrEmptyBlocklist = errors.New("blocklist is empty")

// LoadBlocklist merges keywords.words with the keywords.file contents.
func LoadBlocklist(cfg config.KeywordsConfig) (*keystroke.Blocklist, error) {
	words := append([]string(nil), cfg.Words...)
	if cfg.File != "" {
		fromFile, err := keystroke.LoadBlocklistFile(cfg.File)
		if err != nil {
			return nil, err
		}
		words = append(words, fromFile...)
	}
	bl := keystroke.NewBlocklist(words...)
	if bl.Len() == 0 {
		return nil, ErrEmptyBlocklist
	}
	return bl, nil
}
