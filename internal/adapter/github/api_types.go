package github

// Wire types for the GitHub REST API endpoints the bot touches.
// See: https://docs.github.com/en/rest

// pullResponse is the subset of GET /repos/{owner}/{repo}/pulls/{number}
// the bot reads.
type pullResponse struct {
	Number int    `json:"number"`
	State  string `json:"state"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
}

// fileResponse is one entry from GET /repos/{owner}/{repo}/pulls/{number}/files.
type fileResponse struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Patch    string `json:"patch"`
}

// commentResponse is one entry from GET /repos/{owner}/{repo}/pulls/{number}/comments.
// Position is a pointer because GitHub serializes it as null once the
// comment's anchor line leaves the diff.
type commentResponse struct {
	Body     string `json:"body"`
	Path     string `json:"path"`
	Position *int   `json:"position"`
}

// createCommentRequest is the body for POST /repos/{owner}/{repo}/pulls/{number}/comments.
type createCommentRequest struct {
	Body     string `json:"body"`
	CommitID string `json:"commit_id"`
	Path     string `json:"path"`
	Position int    `json:"position"`
}

// statusRequest is the body for POST /repos/{owner}/{repo}/statuses/{sha}.
type statusRequest struct {
	State       string `json:"state"`
	Description string `json:"description"`
	Context     string `json:"context"`
}

// eventResponse is one entry from GET /repos/{owner}/{repo}/events.
// GitHub serializes event IDs as decimal strings.
type eventResponse struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Payload eventPayload `json:"payload"`
}

type eventPayload struct {
	Action      string     `json:"action"`
	Ref         string     `json:"ref"`
	PullRequest *eventPull `json:"pull_request"`
}

type eventPull struct {
	Number int `json:"number"`
	Head   struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

// contentsResponse is GET /repos/{owner}/{repo}/contents/{path}.
type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// apiErrorResponse is GitHub's error envelope.
type apiErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
