package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/lintbot/internal/adapter/report/console"
	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/store"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrIssuesFound indicates a local lint pass reported issues on changed lines.
var ErrIssuesFound = errors.New("issues found")

// ErrNoRepository indicates no repository was configured or supplied.
var ErrNoRepository = errors.New("repository not configured")

// Watcher drives the long running event poll loop.
type Watcher interface {
	Watch(ctx context.Context, req WatchRequest) error
}

// Reviewer runs a single review pass over explicit pull requests.
type Reviewer interface {
	ReviewPulls(ctx context.Context, req ReviewRequest) error
}

// LocalLinter lints the working copy and reports findings without touching GitHub.
type LocalLinter interface {
	LintLocal(ctx context.Context, req LocalRequest) (domain.Report, error)
}

// HistoryLister reads recorded review runs from the local store.
type HistoryLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// WatchRequest configures the watch loop.
type WatchRequest struct {
	Repository string
	StartEvent int64
}

// ReviewRequest names the pull requests for a one-shot review pass.
type ReviewRequest struct {
	Repository string
	Numbers    []int
}

// LocalRequest configures a lint pass over the local working copy.
type LocalRequest struct {
	Repository  string
	BaseRef     string
	Uncommitted bool
	OutputDir   string
	Formats     []string
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Watcher       Watcher
	Reviewer      Reviewer
	LocalLinter   LocalLinter
	History       HistoryLister
	Args          Arguments
	DefaultRepo   string
	DefaultStart  int64
	DefaultPulls  []int
	DefaultBase   string
	DefaultOutput string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "lintbot",
		Short: "Lint bot for GitHub pull requests",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(watchCommand(deps.Watcher, deps.Reviewer, deps.DefaultRepo, deps.DefaultStart, deps.DefaultPulls))
	root.AddCommand(reviewCommand(deps.Reviewer, deps.DefaultRepo))
	root.AddCommand(localCommand(deps.LocalLinter, deps.DefaultBase, deps.DefaultOutput, deps.DefaultRepo))
	root.AddCommand(historyCommand(deps.History))
	root.AddCommand(checkSkipCommand())

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func watchCommand(watcher Watcher, reviewer Reviewer, defaultRepo string, defaultStart int64, defaultPulls []int) *cobra.Command {
	var repository string
	var startEvent int64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll repository events and review new pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolveRepository(repository)
			if err != nil {
				return err
			}
			// Pull requests pinned in config turn the watch into a single pass.
			if len(defaultPulls) > 0 {
				return reviewer.ReviewPulls(cmd.Context(), ReviewRequest{
					Repository: repo,
					Numbers:    defaultPulls,
				})
			}
			return watcher.Watch(cmd.Context(), WatchRequest{
				Repository: repo,
				StartEvent: startEvent,
			})
		},
	}

	cmd.Flags().StringVar(&repository, "repository", defaultRepo, "Repository to watch, as owner/name")
	cmd.Flags().Int64Var(&startEvent, "start-event", defaultStart, "Process events starting at this identifier instead of the saved cursor")

	return cmd
}

func reviewCommand(reviewer Reviewer, defaultRepo string) *cobra.Command {
	var repository string

	cmd := &cobra.Command{
		Use:   "review <number>...",
		Short: "Review specific pull requests once and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolveRepository(repository)
			if err != nil {
				return err
			}
			numbers := make([]int, 0, len(args))
			for _, arg := range args {
				number, err := strconv.Atoi(arg)
				if err != nil || number <= 0 {
					return fmt.Errorf("invalid pull request number %q", arg)
				}
				numbers = append(numbers, number)
			}
			return reviewer.ReviewPulls(cmd.Context(), ReviewRequest{
				Repository: repo,
				Numbers:    numbers,
			})
		},
	}

	cmd.Flags().StringVar(&repository, "repository", defaultRepo, "Repository to review, as owner/name")

	return cmd
}

func localCommand(linter LocalLinter, defaultBase, defaultOutput, defaultRepo string) *cobra.Command {
	var repository string
	var baseRef string
	var includeUncommitted bool
	var outputDir string
	var formats []string
	var noColor bool

	if defaultBase == "" {
		defaultBase = "master"
	}
	if defaultOutput == "" {
		defaultOutput = "out"
	}

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Lint changed lines in the working copy without touching GitHub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormats(formats); err != nil {
				return err
			}
			report, err := linter.LintLocal(cmd.Context(), LocalRequest{
				Repository:  repository,
				BaseRef:     baseRef,
				Uncommitted: includeUncommitted,
				OutputDir:   outputDir,
				Formats:     formats,
			})
			if err != nil {
				return err
			}
			writer := console.NewWriter(cmd.OutOrStdout())
			if noColor {
				writer.SetColor(false)
			}
			if err := writer.Write(report); err != nil {
				return err
			}
			if report.Issues > 0 {
				return ErrIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", defaultBase, "Base reference to diff against")
	cmd.Flags().BoolVar(&includeUncommitted, "include-uncommitted", false, "Include uncommitted changes in the diff")
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "Directory to write report artifacts")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Artifact formats to write (markdown, json, sarif)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored console output")
	cmd.Flags().StringVar(&repository, "repository", defaultRepo, "Repository name recorded in report artifacts")

	return cmd
}

func historyCommand(lister HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded review runs from the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lister == nil {
				return errors.New("run history is disabled; enable the store in the config file")
			}
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			runs, err := lister.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no recorded runs")
				return nil
			}
			table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(table, "WHEN\tREPOSITORY\tPR\tHEAD\tOUTCOME\tISSUES\tPOSTED")
			caser := cases.Title(language.English)
			for _, run := range runs {
				_, _ = fmt.Fprintf(table, "%s\t%s\t#%d\t%s\t%s\t%d\t%d\n",
					run.Timestamp.UTC().Format(time.RFC3339),
					run.Repository,
					run.Number,
					shortSHA(run.HeadSHA),
					caser.String(run.Outcome),
					run.Issues,
					run.Posted,
				)
			}
			return table.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

// resolveRepository rejects blank repository values so commands fail before
// reaching the GitHub client.
func resolveRepository(repository string) (string, error) {
	repository = strings.TrimSpace(repository)
	if repository == "" {
		return "", fmt.Errorf("%w; set repository in the config file or pass --repository", ErrNoRepository)
	}
	return repository, nil
}

func validateFormats(formats []string) error {
	valid := map[string]bool{"markdown": true, "json": true, "sarif": true}
	for _, format := range formats {
		if !valid[format] {
			return fmt.Errorf("unsupported format %q (valid: markdown, json, sarif)", format)
		}
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
