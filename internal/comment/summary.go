package comment

import (
	"fmt"
	"regexp"
	"strconv"
)

// Group summaries collapse nearby repeats of one message into a single
// line. The grammar is exactly:
//
//	<message> <sub>{N}x spanning {M} lines</sub>
//
// where N is the occurrence count and M is the inclusive line span.
// FormatGroupSummary and ParseGroupSummary are the only two functions
// allowed to touch this grammar; formatting then parsing must reproduce
// the same (message, count) pair.
var groupSummaryRE = regexp.MustCompile(`^(.+) <sub>(\d+)x spanning \d+ lines</sub>$`)

// FormatGroupSummary renders the summary for count occurrences of message
// starting at some line, where span is lastLine-startLine.
func FormatGroupSummary(message string, count, span int) string {
	return fmt.Sprintf("%s <sub>%dx spanning %d lines</sub>", message, count, span+1)
}

// ParseGroupSummary extracts the base message and occurrence count from a
// previously formatted group summary. ok is false for plain messages.
func ParseGroupSummary(s string) (message string, count int, ok bool) {
	match := groupSummaryRE.FindStringSubmatch(s)
	if match == nil {
		return "", 0, false
	}
	count, err := strconv.Atoi(match[2])
	if err != nil {
		return "", 0, false
	}
	return match[1], count, true
}
