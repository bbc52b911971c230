// Package watcher drives the reconciliation engine on a fixed interval and
// tracks when the working copy last changed.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"repotrack.dev/repotrack/internal/engine"
	"repotrack.dev/repotrack/internal/output"
)

// State records the timestamps the watcher reports on. It is created once
// at startup, owned by the watcher, and passed by reference into reporting.
type State struct {
	// LastChange is the time of the most recent cycle that altered the
	// local head.
	LastChange time.Time

	// LastCheck is the time of the most recent cycle, successful or not.
	LastCheck time.Time
}

// Reconciler is the single operation the watcher drives each cycle.
type Reconciler interface {
	Reconcile(ctx context.Context) (engine.Result, error)
}

// Watcher runs the unbounded poll loop. One cycle fully completes before
// the next begins; a failed cycle is logged and never terminates the loop.
type Watcher struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *slog.Logger
	status     *output.StatusLine
	state      State

	// now is a hook for tests.
	now func() time.Time
}

// New creates a Watcher that reconciles every interval.
func New(reconciler Reconciler, interval time.Duration, logger *slog.Logger, status *output.StatusLine) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if status == nil {
		status = output.NewStatusLine(nil)
	}
	return &Watcher{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
		status:     status,
		now:        time.Now,
	}
}

// State returns a copy of the current sync state.
func (w *Watcher) State() State {
	return w.state
}

// Run loops until ctx is canceled. Cancellation is honored at the top of
// each iteration and during the interval sleep, so the process exits
// between cycles rather than mid-protocol.
func (w *Watcher) Run(ctx context.Context) error {
	w.state.LastChange = w.now()
	w.logger.Info("watch loop started", "interval", w.interval)

	for {
		if ctx.Err() != nil {
			w.status.Clear()
			w.logger.Info("watch loop stopped")
			return ctx.Err()
		}

		w.Tick(ctx)

		select {
		case <-ctx.Done():
			w.status.Clear()
			w.logger.Info("watch loop stopped")
			return ctx.Err()
		case <-time.After(w.interval):
		}
	}
}

// Tick runs a single reconciliation cycle and updates the state. Errors are
// contained here: they are logged with enough context to diagnose and never
// propagate past the iteration.
func (w *Watcher) Tick(ctx context.Context) {
	result, err := w.reconciler.Reconcile(ctx)
	w.state.LastCheck = w.now()

	if err != nil {
		w.status.Clear()
		w.logger.Error("reconciliation failed", "error", err)
		return
	}

	switch result.Status {
	case engine.StatusSynchronized:
		if result.Old != result.New {
			w.state.LastChange = w.state.LastCheck
		}
		w.status.Notice("Changes detected, synchronized %s -> %s", short(result.Old), short(result.New))
		w.logger.Info("synchronized", "old", result.Old, "new", result.New)
	case engine.StatusUpToDate:
		elapsed := w.state.LastCheck.Sub(w.state.LastChange).Round(time.Second)
		w.status.Update("No new changes since %s. Elapsed time: %s.",
			w.state.LastChange.UTC().Format("2006-01-02 15:04:05"), elapsed)
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
