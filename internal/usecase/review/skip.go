package review

import (
	"strings"

	"github.com/bkyoung/lintbot/internal/domain"
)

// skipMarkers are matched case-insensitively against the pull request's
// title and body.
var skipMarkers = []string{"[skip lintbot]", "[lintbot skip]"}

// SkipRequested reports whether the pull request opts out of review via a
// marker in its title or body.
func SkipRequested(pr domain.PullRequest) bool {
	title := strings.ToLower(pr.Title)
	body := strings.ToLower(pr.Body)
	for _, marker := range skipMarkers {
		if strings.Contains(title, marker) || strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
