// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package keystroke

import "fmt"

// EventKind classifies a key event.
type EventKind int

// Event kinds. Anything a capture helper cannot classify arrives as KindOther
// and is ignored.
const (
	KindOther EventKind = iota
	KindCharacter
	KindSpace
	KindBackspace
	KindEnter
)

var kindNames = map[EventKind]string{
	KindOther:     "other",
	KindCharacter: "character",
	KindSpace:     "space",
	KindBackspace: "backspace",
	KindEnter:     "enter",
}

// String returns the wire name of the kind.
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseKind maps a wire name to its kind. Unrecognised names are KindOther.
func ParseKind(name string) EventKind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindOther
}

// Event is a single key press.
type Event struct {
	Kind EventKind
	// Char is set for KindCharacter only.
	Char rune
}

// Character returns a character event.
func Character(r rune) Event { return Event{Kind: KindCharacter, Char: r} }

// Space returns a space event.
func Space() Event { return Event{Kind: KindSpace} }

// Backspace returns a backspace event.
func Backspace() Event { return Event{Kind: KindBackspace} }

// Enter returns an enter event.
func Enter() Event { return Event{Kind: KindEnter} }

// Type returns the events for every rune of s, mapping ' ' to Space and
// '\n' to Enter. Tests and the replay command use it.
func Type(s string) []Event {
	events := make([]Event, 0, len(s))
	for _, r := range s {
		switch r {
		case ' ':
			events = append(events, Space())
		case '\n':
			events = append(events, Enter())
		case '\b':
			events = append(events, Backspace())
		default:
			events = append(events, Character(r))
		}
	}
	return events
}
