// Package watch polls the repository's event feed and decides which pull
// requests need a review pass: opened pulls immediately, pushed branches
// when a registered pull is open on them. The GitHub listing itself lives
// in an adapter; this package owns the loop, the cursor, and the
// branch-to-pull registry.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/bkyoung/lintbot/internal/domain"
)

const (
	defaultPollInterval = time.Minute

	// transientRetryDelay spaces retries after a failed poll cycle.
	transientRetryDelay = time.Second

	// handleAttempts bounds the retries around one pull's review pass.
	handleAttempts = 3
)

// EventSource lists the repository's event feed, newest first, and carries
// the server's poll spacing hint.
type EventSource interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	PollInterval() time.Duration
}

// PullHandler runs one review pass over a pull request.
type PullHandler interface {
	HandlePull(ctx context.Context, number int, force bool) error
}

// CursorStore persists the newest handled event ID per repository so a
// restart resumes where the previous process stopped.
type CursorStore interface {
	LoadCursor(ctx context.Context, repository string) (int64, error)
	SaveCursor(ctx context.Context, repository string, id int64) error
}

// Logger is the logging surface for the watch loop. *logrus.Logger and
// *logrus.Entry both satisfy it.
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

// WatcherDeps captures the inbound dependencies for the watcher.
type WatcherDeps struct {
	Events  EventSource
	Handler PullHandler
	Logger  Logger      // Optional
	Cursor  CursorStore // Optional
}

// WatcherOptions tune one watcher instance.
type WatcherOptions struct {
	// Repository is the owner/name the cursor is keyed by.
	Repository string

	// StartEvent makes the loop begin at that event ID instead of the
	// persisted cursor; the named event itself is processed.
	StartEvent int64

	// PollInterval is the spacing between cycles when the server sends
	// no hint.
	PollInterval time.Duration
}

// Watcher drives the poll loop for one repository. A Watcher runs once:
// after Run or RunOnce returns, a new instance is needed.
type Watcher struct {
	deps WatcherDeps
	opts WatcherOptions
	log  Logger

	running atomic.Bool
	cursor  int64
	seeded  bool
	prs     map[string]int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewWatcher wires the watcher dependencies and applies option defaults.
func NewWatcher(deps WatcherDeps, opts WatcherOptions) *Watcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	log := deps.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Watcher{
		deps:  deps,
		opts:  opts,
		log:   log,
		prs:   make(map[string]int),
		sleep: sleepContext,
	}
}

func (w *Watcher) validateDependencies() error {
	if w.deps.Events == nil {
		return errors.New("event source is required")
	}
	if w.deps.Handler == nil {
		return errors.New("pull handler is required")
	}
	return nil
}

func (w *Watcher) start() error {
	if err := w.validateDependencies(); err != nil {
		return err
	}
	if !w.running.CompareAndSwap(false, true) {
		return errors.New("watcher is already running")
	}
	return nil
}

// Run polls the event feed until ctx is canceled. The returned error is
// ctx.Err() on a requested shutdown.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.start(); err != nil {
		return err
	}

	if w.opts.StartEvent > 0 {
		w.cursor = w.opts.StartEvent - 1
		w.seeded = true
	} else if w.deps.Cursor != nil {
		id, err := w.deps.Cursor.LoadCursor(ctx, w.opts.Repository)
		switch {
		case err != nil:
			w.log.Warnf("failed to load event cursor: %v", err)
		case id > 0:
			w.cursor = id
			w.seeded = true
		}
	}

	w.log.Infof("watching %s for pull request activity", w.opts.Repository)
	for {
		interval, err := w.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warnf("poll cycle failed: %v", err)
			interval = transientRetryDelay
		}
		if err := w.sleep(ctx, interval); err != nil {
			return err
		}
	}
}

// RunOnce handles the explicitly named pull requests in ascending order
// and returns. Guards that apply to feed-driven passes are bypassed.
func (w *Watcher) RunOnce(ctx context.Context, numbers []int) error {
	if err := w.start(); err != nil {
		return err
	}

	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)
	for _, number := range sorted {
		if err := w.deps.Handler.HandlePull(ctx, number, true); err != nil {
			return fmt.Errorf("failed to handle PR#%d: %w", number, err)
		}
	}
	return nil
}

// cycle runs one poll: fetch the feed, advance the cursor past everything
// new, and apply the qualifying events oldest first. The first cycle of an
// unseeded watcher only snapshots the cursor so history is not replayed.
func (w *Watcher) cycle(ctx context.Context) (time.Duration, error) {
	events, err := w.deps.Events.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	interval := w.deps.Events.PollInterval()
	if interval <= 0 {
		interval = w.opts.PollInterval
	}

	if !w.seeded {
		if len(events) > 0 {
			w.seeded = true
			w.advanceCursor(ctx, events[0].ID)
		}
		return interval, nil
	}

	var fresh []domain.Event
	for _, event := range events {
		if event.ID <= w.cursor {
			break
		}
		fresh = append(fresh, event)
	}
	if len(fresh) == 0 {
		return interval, nil
	}
	w.advanceCursor(ctx, fresh[0].ID)

	for i := len(fresh) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return interval, ctx.Err()
		}
		w.apply(ctx, fresh[i])
	}
	return interval, nil
}

func (w *Watcher) advanceCursor(ctx context.Context, id int64) {
	w.cursor = id
	if w.deps.Cursor == nil {
		return
	}
	if err := w.deps.Cursor.SaveCursor(ctx, w.opts.Repository, id); err != nil {
		w.log.Warnf("failed to save event cursor: %v", err)
	}
}

func (w *Watcher) apply(ctx context.Context, event domain.Event) {
	switch event.Type {
	case domain.EventPullRequest:
		switch event.Action {
		case domain.ActionOpened:
			w.prs[event.Branch] = event.Number
			w.handle(ctx, event.Number)
		case domain.ActionReopened:
			w.prs[event.Branch] = event.Number
		case domain.ActionClosed:
			if _, ok := w.prs[event.Branch]; !ok {
				w.log.Warnf("closed PR#%d on %s was not being watched", event.Number, event.Branch)
			}
			delete(w.prs, event.Branch)
		}
	case domain.EventPush:
		if number, ok := w.prs[event.Branch]; ok {
			w.handle(ctx, number)
		} else {
			w.log.Debugf("push to %s matches no open pull request", event.Branch)
		}
	}
}

// handle wraps one review pass in a small bounded retry so a flaky pass
// does not lose the event: the feed is never re-read for it.
func (w *Watcher) handle(ctx context.Context, number int) {
	delay := transientRetryDelay
	for attempt := 1; ; attempt++ {
		err := w.deps.Handler.HandlePull(ctx, number, false)
		if err == nil {
			return
		}
		if attempt >= handleAttempts || ctx.Err() != nil {
			w.log.Errorf("giving up on PR#%d after %d attempts: %v", number, attempt, err)
			return
		}
		w.log.Warnf("retrying PR#%d: %v", number, err)
		if w.sleep(ctx, delay) != nil {
			return
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
