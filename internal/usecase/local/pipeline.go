// Package local runs the review pipeline against a working copy instead of
// a pull request. Changed files come from git, findings are keyed by file
// line number rather than diff position, and the outcome is a report for
// rendering instead of a set of posted comments.
package local

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/bkyoung/lintbot/internal/diff"
	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/usecase/dedup"
)

const defaultGroupThreshold = 2

// ChangeSource produces the set of files that differ from a base revision.
type ChangeSource interface {
	ChangedFiles(ctx context.Context, baseRef string, includeUncommitted bool) ([]domain.FileChange, error)
}

// Linter reports style violations for a single file, keyed by line number.
type Linter interface {
	Name() string
	Process(ctx context.Context, path string) (map[int][]string, error)
}

// LinterRegistry resolves the linters responsible for a filename.
type LinterRegistry interface {
	LintersFor(filename string) []Linter
}

// Logger is the logging interface the pipeline requires.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// PipelineDeps holds the collaborators a Pipeline needs.
type PipelineDeps struct {
	Changes ChangeSource
	Linters LinterRegistry
	Logger  Logger // Optional
}

// Options tunes a single local pass.
type Options struct {
	// RootDir is the working copy root; changed paths are resolved against
	// it before linting.
	RootDir string

	// BaseRef is the revision the working copy is compared against.
	BaseRef string

	// Uncommitted compares the worktree instead of HEAD.
	Uncommitted bool

	// GroupThreshold bounds how many repeats of one message are listed
	// per file before collapsing into a summary.
	GroupThreshold int

	// ExcludePaths holds glob patterns for files that are never linted.
	ExcludePaths []string
}

// Pipeline computes findings for locally changed files.
type Pipeline struct {
	deps PipelineDeps
	opts Options
	log  Logger
}

// NewPipeline wires a Pipeline, applying defaults for unset options.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	if opts.GroupThreshold <= 0 {
		opts.GroupThreshold = defaultGroupThreshold
	}
	log := deps.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Pipeline{deps: deps, opts: opts, log: log}
}

func (p *Pipeline) validateDependencies() error {
	if p.deps.Changes == nil {
		return errors.New("change source is required")
	}
	if p.deps.Linters == nil {
		return errors.New("linter registry is required")
	}
	return nil
}

// Run lints every changed file and returns the deduplicated findings.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	if err := p.validateDependencies(); err != nil {
		return domain.Report{}, err
	}

	changes, err := p.deps.Changes.ChangedFiles(ctx, p.opts.BaseRef, p.opts.Uncommitted)
	if err != nil {
		return domain.Report{}, fmt.Errorf("failed to compute changed files: %w", err)
	}

	report := domain.Report{BaseRef: p.opts.BaseRef, Uncommitted: p.opts.Uncommitted}
	tracker := dedup.NewTracker(nil, p.opts.GroupThreshold)
	for _, file := range changes {
		lines, err := p.changedLines(file)
		if err != nil {
			return domain.Report{}, err
		}
		if len(lines) == 0 {
			continue
		}
		report.Files++

		violations, ok := p.lintFile(ctx, file.Path)
		if !ok {
			report.Errored = true
		}
		for line, messages := range violations {
			if !lines[line] {
				continue
			}
			for _, message := range messages {
				tracker.Track(message, file.Path, line, false)
			}
		}
	}

	report.Issues = tracker.NewIssueCount()
	for _, filename := range tracker.Files() {
		for _, lineErrors := range tracker.Errors(filename) {
			report.Findings = append(report.Findings, domain.Finding{
				File:     filename,
				Line:     lineErrors.Line,
				Messages: lineErrors.Messages,
			})
		}
	}
	return report, nil
}

// changedLines returns the set of line numbers file's patch touched, or nil
// when the file should not be linted at all.
func (p *Pipeline) changedLines(file domain.FileChange) (map[int]bool, error) {
	if p.excluded(file.Path) {
		p.log.Debugf("ignoring excluded file: %s", file.Path)
		return nil, nil
	}
	switch {
	case file.Status == domain.FileStatusRemoved:
		p.log.Debugf("ignoring deleted file: %s", file.Path)
		return nil, nil
	case file.Patch == "":
		p.log.Debugf("ignoring %s file without change: %s", file.Status, file.Path)
		return nil, nil
	case file.Status == domain.FileStatusAdded || file.Status == domain.FileStatusModified || file.Status == domain.FileStatusRenamed:
		added, err := diff.AddedLines(file.Patch)
		if err != nil {
			return nil, fmt.Errorf("failed to parse patch for %s: %w", file.Path, err)
		}
		lines := make(map[int]bool, len(added))
		for line := range added {
			lines[line] = true
		}
		return lines, nil
	default:
		p.log.Errorf("unexpected file status %s on %s", file.Status, file.Path)
		return nil, nil
	}
}

// lintFile runs every registered linter against the working copy of name and
// merges their violations. ok is false when at least one linter failed.
func (p *Pipeline) lintFile(ctx context.Context, name string) (map[int][]string, bool) {
	linters := p.deps.Linters.LintersFor(name)
	if len(linters) == 0 {
		p.log.Debugf("no lint handler for %s", name)
		return nil, true
	}

	target := filepath.Join(p.opts.RootDir, filepath.FromSlash(name))
	merged := make(map[int][]string)
	ok := true
	for _, linter := range linters {
		violations, err := linter.Process(ctx, target)
		if err != nil {
			p.log.Errorf("linter %s failed on %s: %v", linter.Name(), name, err)
			ok = false
			continue
		}
		for line, messages := range violations {
			merged[line] = append(merged[line], messages...)
		}
	}
	return merged, ok
}

func (p *Pipeline) excluded(name string) bool {
	for _, pattern := range p.opts.ExcludePaths {
		if matched, err := path.Match(pattern, name); err == nil && matched {
			return true
		}
		if matched, err := path.Match(pattern, path.Base(name)); err == nil && matched {
			return true
		}
	}
	return false
}
