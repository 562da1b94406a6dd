// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keystroke

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Blocklist is an immutable ordered list of lowercase keywords.
type Blocklist struct {
	words []string
}

// NewBlocklist lowercases and trims words, dropping empties and duplicates.
// The first occurrence wins, so match order follows the input order.
func NewBlocklist(words ...string) *Blocklist {
	caser := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = caser.String(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return &Blocklist{words: out}
}

// Words returns a copy of the keywords in match order.
func (b *Blocklist) Words() []string {
	out := make([]string, len(b.words))
	copy(out, b.words)
	return out
}

// Len returns the number of keywords.
func (b *Blocklist) Len() int {
	return len(b.words)
}

type blocklistDoc struct {
	Keywords []string `yaml:"keywords"`
}

// LoadBlocklistFile reads keywords from path. Files ending in .yaml or .yml
// hold either a plain list or a mapping with a "keywords" list. Any other
// file is plain text with one keyword per line; blank lines and lines
// starting with '#' are skipped.
func LoadBlocklistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocklist %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLBlocklist(data, path)
	default:
		return parsePlainBlocklist(data), nil
	}
}

func parseYAMLBlocklist(data []byte, path string) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc blocklistDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse blocklist %s: %w", path, err)
	}
	return doc.Keywords, nil
}

func parsePlainBlocklist(data []byte) []string {
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}
