package diff

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedPatch indicates hunk text with a line prefix the unified
// diff format does not define.
var ErrMalformedPatch = errors.New("malformed patch")

// hunkStartRE captures the new-file start line from a hunk header. It is
// deliberately loose: GitHub emits the full "@@ -a,b +c,d @@" form, but
// only the first number after "+" matters here.
var hunkStartRE = regexp.MustCompile(`^@@[^+]*\+(\d+)`)

// AddedLines walks one file's hunk text and returns a map from post-patch
// line number to diff position for every added line. The map is empty when
// the patch adds nothing.
func AddedLines(patch string) (map[int]int, error) {
	added := make(map[int]int)
	if patch == "" {
		return added, nil
	}

	lines := strings.Split(patch, "\n")
	// Patch text ending in a newline splits into a trailing empty element;
	// dropping it keeps every remaining line a real record.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	lineno := 0
	position := 0
	inHunk := false
	for _, line := range lines {
		if !inHunk && !strings.HasPrefix(line, "@@") {
			return nil, fmt.Errorf("%w: content before hunk header: %q", ErrMalformedPatch, line)
		}
		switch {
		case strings.HasPrefix(line, "@@"):
			match := hunkStartRE.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("%w: hunk header %q", ErrMalformedPatch, line)
			}
			start, err := strconv.Atoi(match[1])
			if err != nil {
				return nil, fmt.Errorf("%w: hunk header %q", ErrMalformedPatch, line)
			}
			lineno = start
			position++
			inHunk = true
		case strings.HasPrefix(line, " "):
			lineno++
			position++
		case strings.HasPrefix(line, "+"):
			added[lineno] = position
			lineno++
			position++
		case strings.HasPrefix(line, "-"):
			position++
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" does not occupy a position.
		default:
			return nil, fmt.Errorf("%w: unexpected line %q", ErrMalformedPatch, line)
		}
	}

	return added, nil
}
