// Package dedup decides which lint findings are genuinely new and how
// nearby repeats of one message collapse into a single grouped comment.
//
// State lives for one review pass only. Prior state is reconstructed each
// pass from the platform's own comment history, so repeated passes over an
// unchanged pull request post nothing.
package dedup

import (
	"sort"

	"github.com/bkyoung/lintbot/internal/comment"
)

// Entry is one output row from a Message: the anchor line and the text to
// show there, either the raw message or a group summary.
type Entry struct {
	Line int
	Text string
}

// Message tracks every line where one distinct message text occurs within
// one file during a single pass.
type Message struct {
	text      string
	threshold int
	lines     map[int]bool // line → already visible on the platform
	groups    map[group]struct{}
}

type group struct {
	start int
	count int
}

// NewMessage constructs tracking state for one (file, message text) pair.
// threshold is the largest line gap folded into one group.
func NewMessage(text string, threshold int) *Message {
	return &Message{
		text:      text,
		threshold: threshold,
		lines:     make(map[int]bool),
		groups:    make(map[group]struct{}),
	}
}

// Track records an occurrence. Visibility is sticky: once a line is known
// to be visible on the platform it stays visible for the whole pass.
func (m *Message) Track(line int, onPlatform bool) {
	m.lines[line] = m.lines[line] || onPlatform
}

// TrackGroup records that a previously posted summary already covers count
// occurrences starting at start, so the identical group is not re-emitted.
func (m *Message) TrackGroup(start, count int) {
	m.groups[group{start: start, count: count}] = struct{}{}
}

// Messages returns what still needs posting. Lines already visible on the
// platform are inert: they do not open, extend, or bridge groups. The
// remaining lines are walked in ascending order and split into groups
// wherever the gap to the previous line exceeds the threshold. A group of
// one emits the message verbatim; larger groups emit a group summary; a
// group recorded via TrackGroup is suppressed entirely.
func (m *Message) Messages() []Entry {
	lines := make([]int, 0, len(m.lines))
	for line := range m.lines {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	var entries []Entry
	var start, last, count int
	started := false
	for _, line := range lines {
		if m.lines[line] {
			continue
		}
		if !started {
			start, last = line, line
			started = true
		}
		if line-last > m.threshold {
			if !m.posted(start, count) {
				entries = append(entries, m.entry(start, count, last-start))
			}
			count = 0
			start = line
		}
		count++
		last = line
	}
	if started && !m.posted(start, count) {
		entries = append(entries, m.entry(start, count, last-start))
	}
	return entries
}

func (m *Message) posted(start, count int) bool {
	_, ok := m.groups[group{start: start, count: count}]
	return ok
}

func (m *Message) entry(start, count, span int) Entry {
	if count == 1 {
		return Entry{Line: start, Text: m.text}
	}
	return Entry{Line: start, Text: comment.FormatGroupSummary(m.text, count, span)}
}
