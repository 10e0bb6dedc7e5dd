package lint

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// flake8Line matches "file:line:col: message" report lines.
var flake8Line = regexp.MustCompile(`^[^:]+:(\d+):\d+:? (.+)$`)

// parseFlake8 reads flake8's default report. Lines that don't look like
// findings (banners, warnings) are skipped.
func parseFlake8(output []byte) (map[int][]string, error) {
	issues := make(map[int][]string)
	for _, line := range strings.Split(string(output), "\n") {
		match := flake8Line.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		lineno, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		issues[lineno] = append(issues[lineno], match[2])
	}
	return issues, nil
}

// pydocstyleLoc matches the location line of pydocstyle's two-line format:
//
//	dummy.py:1 at module level:
//	        D100: Missing docstring in public module
var pydocstyleLoc = regexp.MustCompile(`^[^:]+:(\d+)\s`)

func parsePydocstyle(output []byte) (map[int][]string, error) {
	issues := make(map[int][]string)
	lineno := 0
	for _, line := range strings.Split(string(output), "\n") {
		if lineno == 0 {
			if match := pydocstyleLoc.FindStringSubmatch(line); match != nil {
				lineno, _ = strconv.Atoi(match[1])
			}
			continue
		}
		if message := strings.TrimSpace(line); message != "" {
			issues[lineno] = append(issues[lineno], message)
		}
		lineno = 0
	}
	return issues, nil
}

// rubocopReport is rubocop's --format=json envelope, narrowed to the
// fields the bot reads.
type rubocopReport struct {
	Files []struct {
		Offenses []struct {
			CopName  string `json:"cop_name"`
			Message  string `json:"message"`
			Location struct {
				Line int `json:"line"`
			} `json:"location"`
		} `json:"offenses"`
	} `json:"files"`
}

func parseRubocop(output []byte) (map[int][]string, error) {
	var report rubocopReport
	if err := json.Unmarshal(output, &report); err != nil {
		return nil, fmt.Errorf("failed to parse rubocop output: %w", err)
	}

	issues := make(map[int][]string)
	for _, file := range report.Files {
		for _, offense := range file.Offenses {
			if offense.Location.Line <= 0 {
				continue
			}
			text := offense.Message
			if offense.CopName != "" {
				text = fmt.Sprintf("%s: %s", offense.CopName, offense.Message)
			}
			issues[offense.Location.Line] = append(issues[offense.Location.Line], text)
		}
	}
	return issues, nil
}

// eslintReport is eslint's --format json envelope, one entry per file.
type eslintReport []struct {
	Messages []struct {
		RuleID  string `json:"ruleId"`
		Message string `json:"message"`
		Line    int    `json:"line"`
	} `json:"messages"`
}

func parseESLint(output []byte) (map[int][]string, error) {
	var report eslintReport
	if err := json.Unmarshal(output, &report); err != nil {
		return nil, fmt.Errorf("failed to parse eslint output: %w", err)
	}

	issues := make(map[int][]string)
	for _, file := range report {
		for _, m := range file.Messages {
			if m.Line <= 0 {
				continue
			}
			text := m.Message
			if m.RuleID != "" {
				text = fmt.Sprintf("%s (%s)", m.Message, m.RuleID)
			}
			issues[m.Line] = append(issues[m.Line], text)
		}
	}
	return issues, nil
}
