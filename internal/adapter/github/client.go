package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	githubhttp "github.com/bkyoung/lintbot/internal/adapter/github/http"
	"github.com/bkyoung/lintbot/internal/domain"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
	defaultPollInterval   = 60 * time.Second

	// perPage is the page size requested from list endpoints.
	perPage = 100

	// maxPaginationPages caps how many pages a list call will follow.
	// This bounds the work done on pull requests with thousands of files
	// or comments.
	maxPaginationPages = 10

	// maxResponseSize limits how much data we'll read from a response body.
	// This prevents memory exhaustion from malicious or misconfigured servers.
	maxResponseSize = 10 * 1024 * 1024 // 10 MB
)

// pathSegmentRegex validates that owner and repository names only contain
// characters GitHub itself allows.
var pathSegmentRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// pathTraversalPattern detects path traversal attempts.
var pathTraversalPattern = regexp.MustCompile(`\.\.`)

// Client talks to the GitHub REST API for a single repository.
// It is not safe for concurrent use; the watch loop owns it.
type Client struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	retryConf  githubhttp.RetryConfig

	// Event-feed polling state. GitHub answers 304 when nothing changed
	// since the stored ETag and hints the minimum poll spacing through
	// the X-Poll-Interval header.
	etag         string
	pollInterval time.Duration
}

// NewClient creates a client bound to the given repository. The token is
// a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token, owner, repo string) (*Client, error) {
	if err := validatePathSegment(owner, "owner"); err != nil {
		return nil, err
	}
	if err := validatePathSegment(repo, "repository"); err != nil {
		return nil, err
	}

	return &Client{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			// Disable redirects to prevent SSRF attacks where a same-host
			// pagination URL could redirect to an internal endpoint.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retryConf: githubhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
		pollInterval: defaultPollInterval,
	}, nil
}

// SetBaseURL sets a custom base URL (for testing or GitHub Enterprise).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// Repository returns the owner/name pair the client is bound to.
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// GetPull fetches the pull request's current state.
func (c *Client) GetPull(ctx context.Context, number int) (domain.PullRequest, error) {
	if number <= 0 {
		return domain.PullRequest{}, fmt.Errorf("invalid pull request number: %d", number)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), number)

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return domain.PullRequest{}, err
	}

	var pull pullResponse
	if err := json.Unmarshal(body, &pull); err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to parse pull request: %w", err)
	}

	return domain.PullRequest{
		Number:  pull.Number,
		State:   pull.State,
		Title:   pull.Title,
		Body:    pull.Body,
		Author:  pull.User.Login,
		Branch:  pull.Head.Ref,
		HeadSHA: pull.Head.SHA,
	}, nil
}

// ListPullFiles fetches every changed file in the pull request, following
// pagination up to maxPaginationPages pages.
func (c *Client) ListPullFiles(ctx context.Context, number int) ([]domain.FileChange, error) {
	if number <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", number)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), number, perPage)

	var files []domain.FileChange
	err := c.paginate(ctx, apiURL, func(page []byte) error {
		var batch []fileResponse
		if err := json.Unmarshal(page, &batch); err != nil {
			return fmt.Errorf("failed to parse changed files: %w", err)
		}
		for _, f := range batch {
			files = append(files, domain.FileChange{
				Path:   f.Filename,
				Status: f.Status,
				Patch:  f.Patch,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// ListReviewComments fetches every inline review comment on the pull
// request. Comments whose anchor line left the diff come back with
// Position 0.
func (c *Client) ListReviewComments(ctx context.Context, number int) ([]domain.Comment, error) {
	if number <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", number)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments?per_page=%d",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), number, perPage)

	var comments []domain.Comment
	err := c.paginate(ctx, apiURL, func(page []byte) error {
		var batch []commentResponse
		if err := json.Unmarshal(page, &batch); err != nil {
			return fmt.Errorf("failed to parse review comments: %w", err)
		}
		for _, rc := range batch {
			position := 0
			if rc.Position != nil {
				position = *rc.Position
			}
			comments = append(comments, domain.Comment{
				Body:     rc.Body,
				Path:     rc.Path,
				Position: position,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return comments, nil
}

// CreateReviewComment posts an inline review comment at a diff position.
func (c *Client) CreateReviewComment(ctx context.Context, number int, body, commitSHA, path string, position int) error {
	if number <= 0 {
		return fmt.Errorf("invalid pull request number: %d", number)
	}
	if commitSHA == "" {
		return fmt.Errorf("invalid commit SHA: must not be empty")
	}

	payload, err := json.Marshal(createCommentRequest{
		Body:     body,
		CommitID: commitSHA,
		Path:     path,
		Position: position,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), number)

	_, err = c.doRequest(ctx, http.MethodPost, apiURL, payload)
	return err
}

// CreateStatus posts a commit status against the given SHA.
func (c *Client) CreateStatus(ctx context.Context, sha string, status domain.Status) error {
	if sha == "" {
		return fmt.Errorf("invalid commit SHA: must not be empty")
	}

	payload, err := json.Marshal(statusRequest{
		State:       status.State,
		Description: status.Description,
		Context:     status.Context,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/statuses/%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), url.PathEscape(sha))

	_, err = c.doRequest(ctx, http.MethodPost, apiURL, payload)
	return err
}

// GetContents downloads a file's raw bytes at the given ref.
func (c *Client) GetContents(ctx context.Context, path, ref string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("invalid path: must not be empty")
	}
	if pathTraversalPattern.MatchString(path) {
		return nil, fmt.Errorf("invalid path: must not contain '..'")
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo),
		escapePath(path), url.QueryEscape(ref))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}

	var contents contentsResponse
	if err := json.Unmarshal(body, &contents); err != nil {
		return nil, fmt.Errorf("failed to parse contents: %w", err)
	}
	if contents.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected contents encoding %q for %s", contents.Encoding, path)
	}

	// GitHub wraps base64 payloads at 60 columns.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode contents of %s: %w", path, err)
	}

	return decoded, nil
}

// ListEvents fetches the repository's event feed, newest first. It sends
// the ETag from the previous call so GitHub can answer 304 Not Modified,
// in which case the returned slice is empty. The X-Poll-Interval hint is
// recorded and exposed through PollInterval.
func (c *Client) ListEvents(ctx context.Context) ([]domain.Event, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/events?per_page=%d",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), perPage)

	var extra http.Header
	if c.etag != "" {
		extra = http.Header{}
		extra.Set("If-None-Match", c.etag)
	}

	result, err := c.do(ctx, http.MethodGet, apiURL, nil, extra)
	if err != nil {
		return nil, err
	}

	if hint := result.header.Get("X-Poll-Interval"); hint != "" {
		if seconds, convErr := strconv.Atoi(hint); convErr == nil && seconds > 0 {
			c.pollInterval = time.Duration(seconds) * time.Second
		}
	}
	if etag := result.header.Get("ETag"); etag != "" {
		c.etag = etag
	}

	if result.statusCode == http.StatusNotModified {
		return nil, nil
	}

	var feed []eventResponse
	if err := json.Unmarshal(result.body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse event feed: %w", err)
	}

	events := make([]domain.Event, 0, len(feed))
	for _, ev := range feed {
		id, convErr := strconv.ParseInt(ev.ID, 10, 64)
		if convErr != nil {
			continue
		}
		event := domain.Event{ID: id, Type: ev.Type}
		switch ev.Type {
		case domain.EventPullRequest:
			event.Action = ev.Payload.Action
			if ev.Payload.PullRequest != nil {
				event.Number = ev.Payload.PullRequest.Number
				event.Branch = ev.Payload.PullRequest.Head.Ref
			}
		case domain.EventPush:
			event.Branch = strings.TrimPrefix(ev.Payload.Ref, "refs/heads/")
		}
		events = append(events, event)
	}

	return events, nil
}

// PollInterval returns the spacing GitHub most recently asked for between
// event polls.
func (c *Client) PollInterval() time.Duration {
	return c.pollInterval
}

// requestResult holds the result of a successful HTTP request.
type requestResult struct {
	body       []byte
	statusCode int
	header     http.Header
}

// do executes one HTTP request with retry and returns the response body,
// status code, and headers.
func (c *Client) do(ctx context.Context, method, apiURL string, body []byte, extra http.Header) (*requestResult, error) {
	var result *requestResult

	err := githubhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
		if reqErr != nil {
			return &githubhttp.Error{
				Type:      githubhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
			}
		}

		// Anonymous requests work, at a far lower rate limit; an empty
		// Bearer credential would be rejected outright.
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, values := range extra {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			errType, retryable := classifyTransportError(callErr)
			return &githubhttp.Error{
				Type:      errType,
				Message:   callErr.Error(),
				Retryable: retryable,
			}
		}
		defer resp.Body.Close()

		// Limit response size to prevent memory exhaustion
		limited := io.LimitReader(resp.Body, maxResponseSize)

		if resp.StatusCode >= 400 {
			respBody, readErr := io.ReadAll(limited)
			if readErr != nil {
				respBody = []byte(fmt.Sprintf("(failed to read error response: %v)", readErr))
			}
			return MapHTTPError(resp.StatusCode, respBody, resp.Header)
		}

		respBody, readErr := io.ReadAll(limited)
		if readErr != nil {
			return &githubhttp.Error{
				Type:      githubhttp.ErrTypeNetwork,
				Message:   fmt.Sprintf("failed to read response body: %v", readErr),
				Retryable: true,
			}
		}

		result = &requestResult{
			body:       respBody,
			statusCode: resp.StatusCode,
			header:     resp.Header,
		}
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("no response after retries")
	}

	return result, nil
}

// doRequest executes a request and returns only the response body.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	result, err := c.do(ctx, method, apiURL, body, nil)
	if err != nil {
		return nil, err
	}
	return result.body, nil
}

// paginate fetches every page of a list endpoint, following the Link
// header up to maxPaginationPages pages.
func (c *Client) paginate(ctx context.Context, firstURL string, each func(page []byte) error) error {
	apiURL := firstURL
	for page := 0; page < maxPaginationPages && apiURL != ""; page++ {
		result, err := c.do(ctx, http.MethodGet, apiURL, nil, nil)
		if err != nil {
			return err
		}
		if err := each(result.body); err != nil {
			return err
		}

		next := parseNextPageURL(result.header.Get("Link"))
		if next != "" && !c.isValidPaginationURL(next) {
			return fmt.Errorf("refusing pagination URL on foreign host: %s", next)
		}
		apiURL = next
	}
	return nil
}

// parseNextPageURL extracts the "next" URL from a GitHub Link header.
// Link header format: <url>; rel="next", <url>; rel="last"
func parseNextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}

	links := strings.Split(linkHeader, ",")
	for _, link := range links {
		parts := strings.Split(strings.TrimSpace(link), ";")
		if len(parts) < 2 {
			continue
		}

		relPart := strings.TrimSpace(parts[1])
		if relPart == `rel="next"` {
			urlPart := strings.TrimSpace(parts[0])
			if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
				return urlPart[1 : len(urlPart)-1]
			}
		}
	}

	return ""
}

// isValidPaginationURL checks that a pagination URL is safe to follow.
// It must match the configured baseURL's scheme and host to prevent SSRF.
func (c *Client) isValidPaginationURL(nextURL string) bool {
	next, err := url.Parse(nextURL)
	if err != nil {
		return false
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}

	return next.Scheme == base.Scheme && next.Host == base.Host
}

// escapePath escapes each segment of a repository file path while keeping
// the separators intact.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// validatePathSegment validates that a path segment contains only safe
// characters. Uses whitelist validation to prevent path traversal and
// injection attacks.
func validatePathSegment(value, name string) error {
	if value == "" {
		return fmt.Errorf("invalid %s: must not be empty", name)
	}
	if pathTraversalPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: must not contain '..'", name)
	}
	if !pathSegmentRegex.MatchString(value) {
		return fmt.Errorf("invalid %s: must contain only alphanumeric characters, hyphens, underscores, and dots (not leading)", name)
	}
	return nil
}
