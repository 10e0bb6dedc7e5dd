package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/lintbot/internal/comment"
	"github.com/bkyoung/lintbot/internal/domain"
)

func botComment(path string, position int, messages ...string) domain.Comment {
	return domain.Comment{
		Body:     comment.BuildBody(messages),
		Path:     path,
		Position: position,
	}
}

func TestNewTrackerIgnoresHumanComments(t *testing.T) {
	tracker := NewTracker([]domain.Comment{
		{Body: "nice catch!", Path: "a.py", Position: 3},
		{Body: "* looks like a bullet but is not ours", Path: "a.py", Position: 4},
	}, 2)

	assert.Zero(t, tracker.PlatformCommentCount())
	assert.Zero(t, tracker.HiddenIssueCount())
	assert.Zero(t, tracker.NewIssueCount())
	assert.Empty(t, tracker.Files())
}

func TestNewTrackerCountsHiddenComments(t *testing.T) {
	tracker := NewTracker([]domain.Comment{
		botComment("a.py", 0, "E101: bad indent"),
	}, 2)

	assert.Equal(t, 1, tracker.HiddenIssueCount())
	assert.Zero(t, tracker.PlatformCommentCount())
	assert.Zero(t, tracker.NewIssueCount())
	// The body of a hidden comment is never parsed.
	assert.Empty(t, tracker.Errors("a.py"))
	assert.Empty(t, tracker.Files())
}

func TestNewTrackerReabsorbsBullets(t *testing.T) {
	tracker := NewTracker([]domain.Comment{
		botComment("a.py", 2, "Dummy message"),
	}, 2)

	assert.Equal(t, 1, tracker.PlatformCommentCount())
	assert.Zero(t, tracker.NewIssueCount())
	// Already visible, so nothing to post.
	assert.Empty(t, tracker.Errors("a.py"))
}

func TestTrackDuplicateOfVisibleIssue(t *testing.T) {
	tracker := NewTracker([]domain.Comment{
		botComment("a.py", 1, "Dummy message"),
	}, 2)

	tracker.Track("Dummy message", "a.py", 1, false)

	// The re-discovered occurrence counts as found this pass, but its
	// line is already visible so nothing is re-posted.
	assert.Equal(t, 1, tracker.NewIssueCount())
	assert.Empty(t, tracker.Errors("a.py"))
}

func TestTrackGroupSummaryReadback(t *testing.T) {
	tracker := NewTracker([]domain.Comment{
		botComment("a.py", 1, "Dummy message <sub>3x spanning 3 lines</sub>"),
	}, 2)

	for _, line := range []int{1, 2, 3} {
		tracker.Track("Dummy message", "a.py", line, false)
	}

	assert.Equal(t, 3, tracker.NewIssueCount())
	assert.Equal(t, 1, tracker.PlatformCommentCount())
	assert.Empty(t, tracker.Errors("a.py"), "the posted group must not be re-emitted")
}

func TestTrackNewIssue(t *testing.T) {
	tracker := NewTracker(nil, 2)
	tracker.Track("Dummy Failure", "DummyFile", 16, false)

	require.Equal(t, 1, tracker.NewIssueCount())
	assert.Equal(t, []LineErrors{{Line: 16, Messages: []string{"Dummy Failure"}}}, tracker.Errors("DummyFile"))
}

func TestErrorsSortsMessagesWithinLine(t *testing.T) {
	tracker := NewTracker(nil, 2)
	tracker.Track("zebra", "a.py", 7, false)
	tracker.Track("alpha", "a.py", 7, false)
	tracker.Track("midway", "a.py", 7, false)

	errs := tracker.Errors("a.py")
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"alpha", "midway", "zebra"}, errs[0].Messages)
}

func TestErrorsAscendingLines(t *testing.T) {
	tracker := NewTracker(nil, 2)
	tracker.Track("msg", "a.py", 90, false)
	tracker.Track("msg", "a.py", 10, false)
	tracker.Track("other", "a.py", 50, false)

	errs := tracker.Errors("a.py")
	require.Len(t, errs, 3)
	assert.Equal(t, 10, errs[0].Line)
	assert.Equal(t, 50, errs[1].Line)
	assert.Equal(t, 90, errs[2].Line)
}

func TestFilesSorted(t *testing.T) {
	tracker := NewTracker(nil, 2)
	tracker.Track("msg", "b.py", 1, false)
	tracker.Track("msg", "a.py", 1, false)

	assert.Equal(t, []string{"a.py", "b.py"}, tracker.Files())
}

// A second pass seeded from the first pass's own output must find nothing
// left to post.
func TestRepeatedPassIdempotence(t *testing.T) {
	occurrences := map[string][]int{
		"E501: line too long":   {1, 2, 3},
		"W291: trailing space":  {40},
		"E101: mixed indenting": {10, 12, 30},
	}

	first := NewTracker(nil, 2)
	for msg, lines := range occurrences {
		for _, line := range lines {
			first.Track(msg, "big.py", line, false)
		}
	}

	// Render pass one exactly as the orchestrator posts it: one comment
	// per line, bulleted body.
	var posted []domain.Comment
	for _, le := range first.Errors("big.py") {
		posted = append(posted, botComment("big.py", le.Line, le.Messages...))
	}
	require.NotEmpty(t, posted)

	second := NewTracker(posted, 2)
	for msg, lines := range occurrences {
		for _, line := range lines {
			second.Track(msg, "big.py", line, false)
		}
	}

	assert.Empty(t, second.Errors("big.py"), "second pass re-posted already visible output")
	assert.Equal(t, len(posted), second.PlatformCommentCount())
}
