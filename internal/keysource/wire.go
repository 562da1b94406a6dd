// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keysource

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/keystroke"
)

// ErrMalformed is returned for payloads that are not a key event object.
var ErrMalformed = errors.New("malformed key event")

type wireEvent struct {
	Type string `json:"type"`
	Char string `json:"char,omitempty"`
}

// Decode parses one key event payload. A character event without a char
// decodes to a zero rune, which the segmenter rejects and logs.
func Decode(data []byte) (keystroke.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return keystroke.Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Type == "" {
		return keystroke.Event{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	kind := keystroke.ParseKind(w.Type)
	if kind != keystroke.KindCharacter {
		return keystroke.Event{Kind: kind}, nil
	}
	r, _ := utf8.DecodeRuneInString(w.Char)
	if r == utf8.RuneError {
		r = 0
	}
	return keystroke.Character(r), nil
}

// Encode renders ev in the wire format.
func Encode(ev keystroke.Event) ([]byte, error) {
	w := wireEvent{Type: ev.Kind.String()}
	if ev.Kind == keystroke.KindCharacter {
		w.Char = string(ev.Char)
	}
	return json.Marshal(w)
}
