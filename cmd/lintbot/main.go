package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bkyoung/lintbot/internal/adapter/cli"
	"github.com/bkyoung/lintbot/internal/adapter/git"
	"github.com/bkyoung/lintbot/internal/adapter/github"
	"github.com/bkyoung/lintbot/internal/adapter/lint"
	"github.com/bkyoung/lintbot/internal/adapter/observability"
	"github.com/bkyoung/lintbot/internal/adapter/report/json"
	"github.com/bkyoung/lintbot/internal/adapter/report/markdown"
	"github.com/bkyoung/lintbot/internal/adapter/report/sarif"
	storeAdapter "github.com/bkyoung/lintbot/internal/adapter/store"
	"github.com/bkyoung/lintbot/internal/adapter/store/sqlite"
	"github.com/bkyoung/lintbot/internal/config"
	"github.com/bkyoung/lintbot/internal/domain"
	"github.com/bkyoung/lintbot/internal/store"
	"github.com/bkyoung/lintbot/internal/usecase/local"
	"github.com/bkyoung/lintbot/internal/usecase/review"
	"github.com/bkyoung/lintbot/internal/usecase/watch"
	"github.com/bkyoung/lintbot/internal/version"
)

func main() {
	if err := run(); err != nil {
		switch {
		case errors.Is(err, cli.ErrIssuesFound), errors.Is(err, cli.ErrShouldReview):
			// Findings already went to stdout; the exit code is the signal.
		case errors.Is(err, cli.ErrNoRepository):
			log.Println(err)
			os.Exit(2)
		default:
			log.Println(err)
		}
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "lintbot",
		EnvPrefix:   "LINTBOT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.LogLevel(), cfg.LogFormat())
	if err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}

	var runStore store.Store
	if cfg.Store().Enabled {
		storeDir := filepath.Dir(cfg.Store().Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			logger.Warnf("failed to create store directory: %v", err)
		} else if opened, err := sqlite.NewStore(cfg.Store().Path); err != nil {
			logger.Warnf("failed to open store %s: %v", cfg.Store().Path, err)
		} else {
			runStore = opened
			defer runStore.Close()
		}
	}

	services := &app{
		cfg:     cfg,
		logger:  logger,
		token:   os.Getenv("GITHUB_TOKEN"),
		store:   runStore,
		linters: lint.NewRegistry(logger),
	}

	var history cli.HistoryLister
	if runStore != nil {
		history = services
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Watcher:      services,
		Reviewer:     services,
		LocalLinter:  services,
		History:      history,
		DefaultRepo:  cfg.Repository(),
		DefaultStart: cfg.StartEvent(),
		DefaultPulls: cfg.PullRequests(),
		Version:      version.Value(),
	})

	err = root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cli.ErrVersionRequested):
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested")
		return nil
	default:
		return err
	}
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lintbot"))
	}
	return paths
}

// app implements the CLI ports by assembling use cases on demand. The
// GitHub client binds to one repository, so watch and review builds are
// deferred until the repository is known.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	token   string
	store   store.Store
	linters *lint.Registry
}

func (a *app) Watch(ctx context.Context, req cli.WatchRequest) error {
	watcher, err := a.buildWatcher(req.Repository, req.StartEvent)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

func (a *app) ReviewPulls(ctx context.Context, req cli.ReviewRequest) error {
	watcher, err := a.buildWatcher(req.Repository, 0)
	if err != nil {
		return err
	}
	return watcher.RunOnce(ctx, req.Numbers)
}

func (a *app) LintLocal(ctx context.Context, req cli.LocalRequest) (domain.Report, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return domain.Report{}, fmt.Errorf("resolve working directory: %w", err)
	}

	pipeline := local.NewPipeline(local.PipelineDeps{
		Changes: git.NewEngine(rootDir),
		Linters: localLinters{registry: a.linters},
		Logger:  a.logger,
	}, local.Options{
		RootDir:        rootDir,
		BaseRef:        req.BaseRef,
		Uncommitted:    req.Uncommitted,
		GroupThreshold: a.cfg.GroupThreshold(),
		ExcludePaths:   a.cfg.ExcludePaths(),
	})

	report, err := pipeline.Run(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	if err := a.writeArtifacts(ctx, req, report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

func (a *app) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	return a.store.ListRuns(ctx, limit)
}

func (a *app) buildWatcher(repository string, startEvent int64) (*watch.Watcher, error) {
	client, err := a.buildClient(repository)
	if err != nil {
		return nil, err
	}

	orchestratorDeps := review.OrchestratorDeps{
		Platform: client,
		Linters:  reviewLinters{registry: a.linters},
		Logger:   a.logger,
	}
	watcherDeps := watch.WatcherDeps{
		Events: client,
		Logger: a.logger,
	}
	if a.store != nil {
		bridge := storeAdapter.NewBridge(a.store)
		orchestratorDeps.Recorder = bridge
		watcherDeps.Cursor = bridge
	}

	watcherDeps.Handler = review.NewOrchestrator(orchestratorDeps, review.Options{
		Debug:          a.cfg.Debug(),
		GroupThreshold: a.cfg.GroupThreshold(),
		ReportLimit:    a.cfg.IssueReportLimit(),
		ExcludePaths:   a.cfg.ExcludePaths(),
		UserAllowed:    a.cfg.UserAllowed,
	})

	return watch.NewWatcher(watcherDeps, watch.WatcherOptions{
		Repository: repository,
		StartEvent: startEvent,
	}), nil
}

func (a *app) buildClient(repository string) (*github.Client, error) {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("malformed repository %q, want owner/name", repository)
	}
	if a.token == "" {
		a.logger.Warnf("GITHUB_TOKEN is not set; unauthenticated requests are heavily rate limited")
	}

	client, err := github.NewClient(a.token, owner, name)
	if err != nil {
		return nil, fmt.Errorf("github client setup failed: %w", err)
	}

	httpCfg := a.cfg.HTTP()
	if httpCfg.Timeout > 0 {
		client.SetTimeout(httpCfg.Timeout)
	}
	if httpCfg.MaxRetries > 0 {
		client.SetMaxRetries(httpCfg.MaxRetries)
	}
	if httpCfg.InitialBackoff > 0 {
		client.SetInitialBackoff(httpCfg.InitialBackoff)
	}
	return client, nil
}

func (a *app) writeArtifacts(ctx context.Context, req cli.LocalRequest, report domain.Report) error {
	if len(req.Formats) == 0 {
		return nil
	}

	// Timestamp function for deterministic artifact naming.
	now := func() string {
		return time.Now().UTC().Format("2006-01-02T15-04-05Z")
	}

	for _, format := range req.Formats {
		var written string
		var err error
		switch format {
		case "markdown":
			written, err = markdown.NewWriter(now).Write(ctx, markdown.Artifact{
				OutputDir:  req.OutputDir,
				Repository: req.Repository,
				Report:     report,
			})
		case "json":
			written, err = json.NewWriter(now).Write(ctx, json.Artifact{
				OutputDir:  req.OutputDir,
				Repository: req.Repository,
				Report:     report,
			})
		case "sarif":
			written, err = sarif.NewWriter(now).Write(ctx, sarif.Artifact{
				OutputDir:  req.OutputDir,
				Repository: req.Repository,
				Report:     report,
			})
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			return err
		}
		a.logger.Debugf("wrote %s report to %s", format, written)
	}
	return nil
}

// reviewLinters adapts the lint registry to the review use case port.
type reviewLinters struct {
	registry *lint.Registry
}

func (r reviewLinters) LintersFor(filename string) []review.Linter {
	handlers := r.registry.HandlersFor(filename)
	if len(handlers) == 0 {
		return nil
	}
	linters := make([]review.Linter, 0, len(handlers))
	for _, handler := range handlers {
		linters = append(linters, handler)
	}
	return linters
}

// localLinters adapts the lint registry to the local pipeline port.
type localLinters struct {
	registry *lint.Registry
}

func (l localLinters) LintersFor(filename string) []local.Linter {
	handlers := l.registry.HandlersFor(filename)
	if len(handlers) == 0 {
		return nil
	}
	linters := make([]local.Linter, 0, len(handlers))
	for _, handler := range handlers {
		linters = append(linters, handler)
	}
	return linters
}

// Compile-time interface compliance checks
var _ review.Platform = (*github.Client)(nil)
var _ watch.EventSource = (*github.Client)(nil)
var _ watch.PullHandler = (*review.Orchestrator)(nil)
var _ review.RunRecorder = (*storeAdapter.Bridge)(nil)
var _ watch.CursorStore = (*storeAdapter.Bridge)(nil)
var _ store.Store = (*sqlite.Store)(nil)
var _ local.ChangeSource = (*git.Engine)(nil)
var _ review.LinterRegistry = reviewLinters{}
var _ local.LinterRegistry = localLinters{}
var _ cli.Watcher = (*app)(nil)
var _ cli.Reviewer = (*app)(nil)
var _ cli.LocalLinter = (*app)(nil)
var _ cli.HistoryLister = (*app)(nil)
