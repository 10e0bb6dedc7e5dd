// Package review drives one full lint pass over a pull request: ingest
// the bot's previous review comments, map each changed file's diff, run
// the lint handlers, de-duplicate and group the findings, post what is
// genuinely new, and record a commit status.
package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bkyoung/lintbot/internal/comment"
	"github.com/bkyoung/lintbot/internal/diff"
	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/usecase/dedup"
)

const (
	defaultGroupThreshold = 2
	defaultReportLimit    = 128

	// How often the "no lint handler" line may repeat per extension.
	noHandlerLogInterval = time.Hour
)

// Platform is the outbound port to the review platform's REST surface,
// bound to a single repository.
type Platform interface {
	Repository() string
	GetPull(ctx context.Context, number int) (domain.PullRequest, error)
	ListPullFiles(ctx context.Context, number int) ([]domain.FileChange, error)
	ListReviewComments(ctx context.Context, number int) ([]domain.Comment, error)
	CreateReviewComment(ctx context.Context, number int, body, commitSHA, path string, position int) error
	CreateStatus(ctx context.Context, sha string, status domain.Status) error
	GetContents(ctx context.Context, path, ref string) ([]byte, error)
}

// Linter runs one lint tool against a file on disk and reports violations
// keyed by line number.
type Linter interface {
	Name() string
	Process(ctx context.Context, path string) (map[int][]string, error)
}

// LinterRegistry resolves the linters responsible for a filename.
type LinterRegistry interface {
	LintersFor(filename string) []Linter
}

// Run summarizes one completed pass for persistence.
type Run struct {
	Repository string
	Number     int
	HeadSHA    string
	Issues     int
	Posted     int
	Skipped    int
	Outcome    string
	Timestamp  time.Time
}

// RunRecorder persists pass summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// OrchestratorDeps captures the inbound dependencies for the orchestrator.
type OrchestratorDeps struct {
	Platform Platform
	Linters  LinterRegistry
	Logger   Logger      // Optional
	Recorder RunRecorder // Optional
}

// Options tune the orchestrator's behavior across passes.
type Options struct {
	// Debug suppresses every write to the platform (comments and
	// statuses) while leaving reads and logging intact.
	Debug bool

	// GroupThreshold is the largest line gap folded into one grouped
	// comment.
	GroupThreshold int

	// ReportLimit caps the total visible bot comments per pull request.
	ReportLimit int

	// ExcludePaths are path.Match patterns tested against each changed
	// file's full slash path and its base name, so "*.min.js" excludes
	// at any depth.
	ExcludePaths []string

	// UserAllowed decides whether a pull request author gets reviewed.
	// Nil allows everyone.
	UserAllowed func(login string) bool
}

// Orchestrator runs review passes for one repository.
type Orchestrator struct {
	deps      OrchestratorDeps
	opts      Options
	log       Logger
	noHandler *debouncer
}

// NewOrchestrator wires the orchestrator dependencies and applies option
// defaults.
func NewOrchestrator(deps OrchestratorDeps, opts Options) *Orchestrator {
	if opts.GroupThreshold <= 0 {
		opts.GroupThreshold = defaultGroupThreshold
	}
	if opts.ReportLimit <= 0 {
		opts.ReportLimit = defaultReportLimit
	}
	log := deps.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Orchestrator{
		deps:      deps,
		opts:      opts,
		log:       log,
		noHandler: newDebouncer(noHandlerLogInterval, nil),
	}
}

func (o *Orchestrator) validateDependencies() error {
	if o.deps.Platform == nil {
		return errors.New("platform client is required")
	}
	if o.deps.Linters == nil {
		return errors.New("linter registry is required")
	}
	return nil
}

// HandlePull runs one review pass over pull request number. force
// bypasses the author filter, the open-state requirement, and the skip
// marker, for pull requests named explicitly by the operator.
func (o *Orchestrator) HandlePull(ctx context.Context, number int, force bool) error {
	if err := o.validateDependencies(); err != nil {
		return err
	}

	pr, err := o.deps.Platform.GetPull(ctx, number)
	if err != nil {
		return fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}

	if !force {
		if allowed := o.opts.UserAllowed; allowed != nil && !allowed(pr.Author) {
			o.log.Debugf("skipping PR#%d: %s is not allowed", pr.Number, pr.Author)
			return nil
		}
		if !pr.Open() {
			o.log.Debugf("skipping PR#%d: invalid state (%s)", pr.Number, pr.State)
			return nil
		}
		if SkipRequested(pr) {
			o.log.Infof("skipping PR#%d: skip marker present", pr.Number)
			return nil
		}
	}
	o.log.Infof("handling PR#%d by %s", pr.Number, pr.Author)

	o.postStatus(ctx, pr.HeadSHA, domain.StatePending, "started investigation")

	comments, err := o.deps.Platform.ListReviewComments(ctx, pr.Number)
	if err != nil {
		return fmt.Errorf("failed to list review comments for #%d: %w", pr.Number, err)
	}
	tracker := dedup.NewTracker(comments, o.opts.GroupThreshold)
	if hidden := tracker.HiddenIssueCount(); hidden > 0 {
		o.log.Debugf("PR#%d: %s lost their diff anchor", pr.Number, plural(hidden, "previous comment"))
	}

	files, err := o.deps.Platform.ListPullFiles(ctx, pr.Number)
	if err != nil {
		return fmt.Errorf("failed to list changed files for #%d: %w", pr.Number, err)
	}

	scratch, err := os.MkdirTemp("", "lintbot-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	counters := make(stats)
	exception := false
	for _, file := range files {
		added, err := o.changedLines(file, counters)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			continue
		}

		violations, ok := o.lintFile(ctx, scratch, file.Path, pr.HeadSHA)
		if !ok {
			exception = true
		}

		fileIssues := 0
		for line, msgs := range violations {
			position, mapped := added[line]
			if !mapped {
				continue
			}
			fileIssues += len(msgs)
			for _, msg := range msgs {
				tracker.Track(msg, file.Path, position, false)
			}
		}
		counters.add("issues", fileIssues)
		o.log.Debugf("PR#%d: found %s in %s", pr.Number, plural(fileIssues, "issue"), file.Path)
	}

	posted, skipped := 0, 0
	for _, filename := range tracker.Files() {
		for _, lineErrors := range tracker.Errors(filename) {
			if tracker.PlatformCommentCount()+posted >= o.opts.ReportLimit {
				skipped += len(lineErrors.Messages)
				continue
			}
			if !o.opts.Debug {
				body := comment.BuildBody(lineErrors.Messages)
				if err := o.deps.Platform.CreateReviewComment(ctx, pr.Number, body, pr.HeadSHA, filename, lineErrors.Line); err != nil {
					o.log.Errorf("failed to post comment on %s:%d: %v", filename, lineErrors.Line, err)
					exception = true
					continue
				}
			}
			posted++
			o.log.Debugf("PR#%d (%s:%d) comment: %v", pr.Number, filename, lineErrors.Line, lineErrors.Messages)
		}
	}
	if skipped > 0 {
		counters.add("skipped_issues", skipped)
	}

	state, description := outcome(exception, tracker.NewIssueCount())
	o.postStatus(ctx, pr.HeadSHA, state, description)
	o.log.Infof("PR#%d status: %s", pr.Number, description)
	counters.log(o.log, pr.Number)

	if o.deps.Recorder != nil && !o.opts.Debug {
		run := Run{
			Repository: o.deps.Platform.Repository(),
			Number:     pr.Number,
			HeadSHA:    pr.HeadSHA,
			Issues:     tracker.NewIssueCount(),
			Posted:     posted,
			Skipped:    skipped,
			Outcome:    state,
			Timestamp:  time.Now(),
		}
		if err := o.deps.Recorder.RecordRun(ctx, run); err != nil {
			o.log.Warnf("failed to record run for PR#%d: %v", pr.Number, err)
		}
	}
	return nil
}

// changedLines routes one changed file by status, keeps the counters
// current, and returns the file's added-line position map. A nil map
// means the file takes no part in this pass.
func (o *Orchestrator) changedLines(file domain.FileChange, counters stats) (map[int]int, error) {
	if o.excluded(file.Path) {
		o.log.Debugf("ignoring excluded file: %s", file.Path)
		counters.inc("excluded_files")
		return nil, nil
	}
	switch {
	case file.Status == domain.FileStatusRemoved:
		o.log.Debugf("ignoring deleted file: %s", file.Path)
		counters.inc("deleted_files")
		return nil, nil
	case file.Patch == "":
		o.log.Debugf("ignoring %s file without change: %s", file.Status, file.Path)
		counters.inc("unchanged_files")
		return nil, nil
	case file.Status == domain.FileStatusModified || file.Status == domain.FileStatusRenamed:
		added, err := diff.AddedLines(file.Patch)
		if err != nil {
			return nil, fmt.Errorf("failed to map %s: %w", file.Path, err)
		}
		o.log.Debugf("found %s in %s", plural(len(added), "modified line"), file.Path)
		counters.inc("modified_files")
		counters.add("modified_lines", len(added))
		return added, nil
	case file.Status == domain.FileStatusAdded:
		added, err := diff.AddedLines(file.Patch)
		if err != nil {
			return nil, fmt.Errorf("failed to map %s: %w", file.Path, err)
		}
		o.log.Debugf("found new file %s with %s", file.Path, plural(len(added), "new line"))
		counters.inc("added_files")
		counters.add("added_lines", len(added))
		return added, nil
	default:
		o.log.Errorf("unexpected file status %s on %s", file.Status, file.Path)
		return nil, nil
	}
}

// lintFile fetches one file at ref into the scratch directory and runs
// every registered linter over it, merging their per-line output. ok is
// false when the fetch or any linter failed; partial results from the
// linters that did succeed are still returned.
func (o *Orchestrator) lintFile(ctx context.Context, scratch, name, ref string) (map[int][]string, bool) {
	linters := o.deps.Linters.LintersFor(name)
	if len(linters) == 0 {
		ext := strings.ToLower(filepath.Ext(name))
		if o.noHandler.ready(ext) {
			o.log.Debugf("no lint handler for extension %s", ext)
		}
		return nil, true
	}

	local, err := o.fetchFile(ctx, scratch, name, ref)
	if err != nil {
		o.log.Errorf("failed to fetch %s: %v", name, err)
		return nil, false
	}

	ok := true
	violations := make(map[int][]string)
	for _, linter := range linters {
		out, err := linter.Process(ctx, local)
		if err != nil {
			o.log.Errorf("%s failed on %s: %v", linter.Name(), name, err)
			ok = false
			continue
		}
		for line, msgs := range out {
			violations[line] = append(violations[line], msgs...)
		}
	}
	return violations, ok
}

func (o *Orchestrator) fetchFile(ctx context.Context, scratch, name, ref string) (string, error) {
	data, err := o.deps.Platform.GetContents(ctx, name, ref)
	if err != nil {
		return "", err
	}
	local := filepath.Join(scratch, filepath.FromSlash(name))
	if !strings.HasPrefix(local, scratch+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to write outside scratch directory: %s", name)
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(local, data, 0o600); err != nil {
		return "", err
	}
	return local, nil
}

func (o *Orchestrator) excluded(p string) bool {
	base := path.Base(p)
	for _, pattern := range o.opts.ExcludePaths {
		if ok, err := path.Match(pattern, p); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// postStatus is best effort: a status failure is logged but never fails
// the pass. Debug mode suppresses the write.
func (o *Orchestrator) postStatus(ctx context.Context, sha, state, description string) {
	if o.opts.Debug {
		return
	}
	status := domain.Status{State: state, Description: description, Context: domain.StatusContext}
	if err := o.deps.Platform.CreateStatus(ctx, sha, status); err != nil {
		o.log.Errorf("failed to set %s status: %v", state, err)
	}
}

func outcome(exception bool, newIssues int) (state, description string) {
	switch {
	case exception:
		return domain.StateError, "encountered an exception in handler. Check log."
	case newIssues > 0:
		return domain.StateFailure, "found " + plural(newIssues, "issue")
	default:
		return domain.StateSuccess, fmt.Sprintf("approves! %s!", approvalPhrase())
	}
}
