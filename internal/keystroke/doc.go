// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package keystroke turns a stream of key events into words and checks them
against a blocklist.

# Segmentation

The Segmenter keeps an in-progress word and a bounded list of committed
words:

	event         current      committed
	p,o,r,m       "porm"       []
	space         "porm␣"      []
	i             "i"          ["porm"]
	backspace     ""           ["porm"]
	backspace     "porm"       []

A space is recorded as a trailing marker on the current word; the word is
committed only when the next character arrives, which lets a backspace over
the space undo the boundary. Backspace on an empty current word pops the
most recent committed word back for editing. Enter commits the current
word. Events of kind Other are ignored.

# Matching

Matching runs on Enter and whenever the committed list grows past the
buffer size. Committed words are checked oldest first against the keywords
in blocklist order. A word matches a keyword when the two are equal or their
Levenshtein distance is within the configured threshold (default 1):

	blocklist: ["porn"]
	typed:     p o r m Enter
	result:    "porm" matches "porn" at distance 1, violation fired

The first match fires the violation callback once and clears the buffer. A
full buffer with no match is cleared without firing.

# Faults

A faulty event, or a panic in the violation callback, is recovered and
logged per event. The buffer is left as it was and the pipeline continues.

# Thread Safety

Segmenter and Matcher are not safe for concurrent use. A single pipeline
goroutine owns them; KeystrokeService in internal/supervisor/services is
that goroutine in the agent.
*/
package keystroke
