package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/lintbot/internal/domain"
)

func TestSkipRequested(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  bool
	}{
		{"marker in title", "WIP [skip lintbot]", "", true},
		{"marker in body", "Fix parser", "still drafting\n[skip lintbot]", true},
		{"reversed marker", "[lintbot skip] experiment", "", true},
		{"case insensitive", "wip [SKIP LINTBOT]", "", true},
		{"no marker", "Fix parser", "ready for review", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := domain.PullRequest{Title: tt.title, Body: tt.body}
			assert.Equal(t, tt.want, SkipRequested(pr))
		})
	}
}
