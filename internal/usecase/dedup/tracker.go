package dedup

import (
	"sort"

	"github.com/bkyoung/lintbot/internal/comment"
	"github.com/bkyoung/lintbot/internal/domain"
)

// Tracker owns every Message for every file in one review pass and the
// pass-level issue accounting.
type Tracker struct {
	byFile    map[string]map[string]*Message
	threshold int

	platformComments int
	hiddenIssues     int
	newIssues        int
}

// NewTracker seeds a tracker from the review's existing comments. Comments
// not written by the bot are ignored. Orphaned bot comments (position 0)
// are counted as hidden and their bodies are not parsed: they cannot be
// matched to a live diff line. Every bullet of a live bot comment is
// re-tracked at the comment's position.
func NewTracker(comments []domain.Comment, threshold int) *Tracker {
	t := &Tracker{
		byFile:    make(map[string]map[string]*Message),
		threshold: threshold,
	}
	for _, c := range comments {
		if !comment.IsBotComment(c.Body) {
			continue
		}
		if c.Hidden() {
			t.hiddenIssues++
			continue
		}
		t.platformComments++
		for _, msg := range comment.ParseBody(c.Body) {
			t.Track(msg, c.Path, c.Position, true)
		}
	}
	return t
}

// Track records one occurrence of message in filename at line. A message
// carrying group-summary syntax is a readback of the bot's own output: it
// routes to TrackGroup under its base message and never counts as new.
// Anything else counts toward the new-issue total unless it arrived from
// the platform.
func (t *Tracker) Track(message, filename string, line int, onPlatform bool) {
	if base, count, ok := comment.ParseGroupSummary(message); ok {
		t.message(filename, base).TrackGroup(line, count)
		return
	}
	if !onPlatform {
		t.newIssues++
	}
	t.message(filename, message).Track(line, onPlatform)
}

func (t *Tracker) message(filename, text string) *Message {
	file, ok := t.byFile[filename]
	if !ok {
		file = make(map[string]*Message)
		t.byFile[filename] = file
	}
	msg, ok := file[text]
	if !ok {
		msg = NewMessage(text, t.threshold)
		file[text] = msg
	}
	return msg
}

// LineErrors is the final post list for one line: every message to show
// there, sorted alphabetically so comment text is stable across passes.
type LineErrors struct {
	Line     int
	Messages []string
}

// Errors returns the post list for filename in ascending line order. The
// result is a pure function of the tracked occurrences, independent of
// insertion order.
func (t *Tracker) Errors(filename string) []LineErrors {
	byLine := make(map[int][]string)
	for _, msg := range t.byFile[filename] {
		for _, entry := range msg.Messages() {
			byLine[entry.Line] = append(byLine[entry.Line], entry.Text)
		}
	}

	lines := make([]int, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	errors := make([]LineErrors, 0, len(lines))
	for _, line := range lines {
		messages := byLine[line]
		sort.Strings(messages)
		errors = append(errors, LineErrors{Line: line, Messages: messages})
	}
	return errors
}

// Files returns every filename with tracked state, sorted.
func (t *Tracker) Files() []string {
	files := make([]string, 0, len(t.byFile))
	for file := range t.byFile {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// PlatformCommentCount is the number of live bot comments found during
// ingestion.
func (t *Tracker) PlatformCommentCount() int {
	return t.platformComments
}

// HiddenIssueCount is the number of orphaned bot comments found during
// ingestion.
func (t *Tracker) HiddenIssueCount() int {
	return t.hiddenIssues
}

// NewIssueCount is the number of occurrences tracked this pass that were
// not already visible on the platform.
func (t *Tracker) NewIssueCount() int {
	return t.newIssues
}
