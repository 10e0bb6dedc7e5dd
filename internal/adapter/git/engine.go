// Package git computes changed-file sets from a local clone so the lint
// pipeline can run without a review platform. Patches are reduced to
// their hunks, the same headerless form the platform's files API serves.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/lintbot/internal/domain"
)

// Engine reads change sets from the repository directory, backed by go-git.
type Engine struct {
	repoDir string
}

// NewEngine constructs a Git engine for the provided repository directory.
func NewEngine(repoDir string) *Engine {
	return &Engine{repoDir: repoDir}
}

// ChangedFiles returns one FileChange per file differing between baseRef
// and HEAD, or between baseRef and the working tree when includeUncommitted
// is set. Binary files are listed with an empty patch.
func (e *Engine) ChangedFiles(ctx context.Context, baseRef string, includeUncommitted bool) ([]domain.FileChange, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base ref %s: %w", baseRef, err)
	}

	if includeUncommitted {
		return e.worktreeChanges(ctx, baseRef)
	}

	headCommit, err := resolveCommit(repo, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	patch, err := baseCommit.Patch(headCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute patch: %w", err)
	}

	changes := make([]domain.FileChange, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		path, status := pathAndStatus(fp)
		change := domain.FileChange{Path: path, Status: status}
		if !fp.IsBinary() {
			text, err := encodeFilePatch(fp)
			if err != nil {
				return nil, fmt.Errorf("failed to encode patch for %s: %w", path, err)
			}
			change.Patch = HunksOnly(text)
		}
		changes = append(changes, change)
	}

	return changes, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(e.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// pathAndStatus maps a file patch onto the platform's file-status
// vocabulary. Renames report the new path.
func pathAndStatus(fp formatdiff.FilePatch) (string, string) {
	from, to := fp.Files()

	switch {
	case from == nil && to != nil:
		return to.Path(), domain.FileStatusAdded
	case from != nil && to == nil:
		return from.Path(), domain.FileStatusRemoved
	case from != nil && to != nil:
		if from.Path() != to.Path() {
			return to.Path(), domain.FileStatusRenamed
		}
		return to.Path(), domain.FileStatusModified
	default:
		return "", domain.FileStatusModified
	}
}

// HunksOnly strips the header lines before the first hunk so the patch
// matches the headerless form the review platform serves. A patch with no
// hunks collapses to the empty string.
func HunksOnly(patch string) string {
	start := 0
	if !strings.HasPrefix(patch, "@@ ") {
		i := strings.Index(patch, "\n@@ ")
		if i < 0 {
			return ""
		}
		start = i + 1
	}
	return strings.TrimRight(patch[start:], "\n")
}

// IsBinaryPatch checks if raw git diff output describes a binary file.
func IsBinaryPatch(patchText string) bool {
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "Binary files ") || line == "GIT binary patch" {
			return true
		}
	}
	return false
}

func (e *Engine) worktreeChanges(ctx context.Context, baseRef string) ([]domain.FileChange, error) {
	statusOut, err := runGitCommand(ctx, e.repoDir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	trimmed := strings.TrimRight(statusOut, "\r\n")
	if trimmed == "" {
		return []domain.FileChange{}, nil
	}

	lines := strings.Split(trimmed, "\n")
	changes := make([]domain.FileChange, 0, len(lines))
	for _, line := range lines {
		if len(line) < 3 {
			continue
		}
		statusChar := selectStatusChar(line)
		path := ExtractPath(line)
		patchOut, err := runGitCommand(ctx, e.repoDir, "diff", baseRef, "--", path)
		if err != nil {
			return nil, fmt.Errorf("git diff %s: %w", path, err)
		}
		change := domain.FileChange{Path: path, Status: MapGitStatus(statusChar)}
		if !IsBinaryPatch(patchOut) {
			change.Patch = HunksOnly(patchOut)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}

func selectStatusChar(line string) rune {
	if len(line) < 2 {
		return 'M'
	}
	first := rune(line[0])
	second := rune(line[1])
	switch {
	case second != ' ':
		return second
	case first != ' ':
		return first
	default:
		return 'M'
	}
}

// ExtractPath extracts the current path from a git status line. For
// renames, git status shows "R  old_path -> new_path" and the new path is
// the one the pipeline lints.
func ExtractPath(line string) string {
	if len(line) <= 3 {
		return strings.TrimSpace(line)
	}
	pathPart := strings.TrimSpace(line[3:])
	if i := strings.Index(pathPart, " -> "); i >= 0 {
		return strings.TrimSpace(pathPart[i+len(" -> "):])
	}
	return pathPart
}

// MapGitStatus converts a git status character to a domain file status.
func MapGitStatus(status rune) string {
	switch status {
	case 'A', '?':
		return domain.FileStatusAdded
	case 'D':
		return domain.FileStatusRemoved
	case 'R':
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
