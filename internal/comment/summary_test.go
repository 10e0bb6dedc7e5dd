package comment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/lintbot/internal/comment"
)

func TestFormatGroupSummary(t *testing.T) {
	got := comment.FormatGroupSummary("E501: line too long", 3, 2)
	assert.Equal(t, "E501: line too long <sub>3x spanning 3 lines</sub>", got)
}

func TestParseGroupSummary(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMessage string
		wantCount   int
		wantOK      bool
	}{
		{
			name:        "grouped message",
			input:       "E501: line too long <sub>3x spanning 5 lines</sub>",
			wantMessage: "E501: line too long",
			wantCount:   3,
			wantOK:      true,
		},
		{
			name:   "plain message",
			input:  "E501: line too long",
			wantOK: false,
		},
		{
			name:   "summary with trailing text",
			input:  "msg <sub>2x spanning 2 lines</sub> and more",
			wantOK: false,
		},
		{
			name:   "empty string",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, count, ok := comment.ParseGroupSummary(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantMessage, message)
				assert.Equal(t, tt.wantCount, count)
			}
		})
	}
}

// Formatting then parsing must reproduce the same (message, count) pair,
// even for messages that already contain summary syntax.
func TestGroupSummaryRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		message string
		count   int
		span    int
	}{
		{name: "simple", message: "E101: indentation contains mixed spaces and tabs", count: 3, span: 2},
		{name: "single line span", message: "D100: Missing docstring", count: 2, span: 0},
		{name: "message containing sub markup", message: "weird <sub>2x spanning 9 lines</sub>", count: 4, span: 5},
		{name: "message with regex metacharacters", message: "C901 'f' is too complex (12)", count: 7, span: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatted := comment.FormatGroupSummary(tt.message, tt.count, tt.span)
			message, count, ok := comment.ParseGroupSummary(formatted)
			assert.True(t, ok)
			assert.Equal(t, tt.message, message)
			assert.Equal(t, tt.count, count)
		})
	}
}
