package domain

// File statuses as reported by the review platform for a changed file.
const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRenamed  = "renamed"
	FileStatusRemoved  = "removed"
)

// Commit states posted against a pull request's head commit.
const (
	StatePending = "pending"
	StateSuccess = "success"
	StateFailure = "failure"
	StateError   = "error"
)

// StatusContext labels every commit status this bot posts so repeated
// runs update one status slot instead of stacking new ones.
const StatusContext = "lintbot"

// PullRequest is the subset of pull-request data the bot acts on.
type PullRequest struct {
	Number  int
	State   string
	Title   string
	Body    string
	Author  string
	Branch  string
	HeadSHA string
}

// Open reports whether the pull request can still receive review comments.
func (pr PullRequest) Open() bool {
	return pr.State == "open"
}

// FileChange captures one changed file within a pull request.
type FileChange struct {
	Path   string
	Status string
	Patch  string
}

// Comment is the read model for an existing inline review comment.
// Position 0 marks an orphaned comment whose anchor line no longer
// exists in the current diff.
type Comment struct {
	Body     string
	Path     string
	Position int
}

// Hidden reports whether the comment has lost its diff anchor.
func (c Comment) Hidden() bool {
	return c.Position == 0
}

// Event kinds the watch loop reacts to.
const (
	EventPullRequest = "PullRequestEvent"
	EventPush        = "PushEvent"
)

// Pull-request event actions.
const (
	ActionOpened   = "opened"
	ActionReopened = "reopened"
	ActionClosed   = "closed"
)

// Event is one entry from the repository's event feed.
type Event struct {
	ID     int64
	Type   string
	Action string
	Number int
	Branch string
}

// Status is an outbound commit-status update.
type Status struct {
	State       string
	Description string
	Context     string
}
