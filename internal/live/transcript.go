package live

import (
	"slices"
	"strings"
)

// TranscriptEntry is one speaker turn of a voice session.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	IsFinal bool    `json:"is_final"`
}

type turn struct {
	open  bool
	index int
	text  strings.Builder
}

// Transcript accumulates fragments per speaker. A speaker's turn is open
// from its first fragment until the next CompleteTurn; fragments of an open
// turn extend the same entry even when the other speaker interleaves.
type Transcript struct {
	entries []TranscriptEntry
	turns   map[Speaker]*turn
}

// Fragment appends text to the speaker's open entry, opening one if needed.
func (t *Transcript) Fragment(sp Speaker, text string) {
	if t.turns == nil {
		t.turns = make(map[Speaker]*turn)
	}
	tr, ok := t.turns[sp]
	if !ok {
		tr = &turn{}
		t.turns[sp] = tr
	}

	if !tr.open {
		t.entries = append(t.entries, TranscriptEntry{Speaker: sp})
		tr.open = true
		tr.index = len(t.entries) - 1
		tr.text.Reset()
	}

	tr.text.WriteString(text)
	t.entries[tr.index].Text = tr.text.String()
}

// CompleteTurn freezes every open entry and closes both turns.
func (t *Transcript) CompleteTurn() {
	for _, tr := range t.turns {
		if tr.open {
			t.entries[tr.index].IsFinal = true
		}
		tr.open = false
		tr.text.Reset()
	}
}

// DiscardTurns drops the accumulators and keeps the log as is.
func (t *Transcript) DiscardTurns() {
	t.turns = nil
}

// Reset clears both the log and the accumulators.
func (t *Transcript) Reset() {
	t.entries = nil
	t.turns = nil
}

// Entries returns a copy of the log in arrival order.
func (t *Transcript) Entries() []TranscriptEntry {
	return slices.Clone(t.entries)
}
