package watcher_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repotrack.dev/repotrack/internal/engine"
	"repotrack.dev/repotrack/internal/output"
	"repotrack.dev/repotrack/internal/watcher"
)

// scriptedReconciler returns queued outcomes, one per cycle.
type scriptedReconciler struct {
	results []engine.Result
	errs    []error
	cycles  int
}

func (s *scriptedReconciler) Reconcile(_ context.Context) (engine.Result, error) {
	i := s.cycles
	s.cycles++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], s.errs[i]
}

func newTestWatcher(rec watcher.Reconciler, interval time.Duration) (*watcher.Watcher, *bytes.Buffer) {
	var buf bytes.Buffer
	status := output.NewStatusLine(&buf)
	return watcher.New(rec, interval, nil, status), &buf
}

func TestTickUpToDateUpdatesOnlyLastCheck(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{{Status: engine.StatusUpToDate}},
		errs:    []error{nil},
	}
	w, buf := newTestWatcher(rec, time.Minute)

	before := w.State()
	w.Tick(context.Background())
	after := w.State()

	require.True(t, after.LastCheck.After(before.LastCheck))
	require.Equal(t, before.LastChange, after.LastChange)
	require.Contains(t, buf.String(), "No new changes since")
}

func TestTickSynchronizedUpdatesLastChange(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{{Status: engine.StatusSynchronized, Old: "abc123", New: "def456"}},
		errs:    []error{nil},
	}
	w, buf := newTestWatcher(rec, time.Minute)

	w.Tick(context.Background())
	state := w.State()

	require.False(t, state.LastChange.IsZero())
	require.Equal(t, state.LastCheck, state.LastChange)
	require.Contains(t, buf.String(), "Changes detected")
}

func TestTickSynchronizedWithUnchangedHeadKeepsLastChange(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{{Status: engine.StatusSynchronized, Old: "abc123", New: "abc123"}},
		errs:    []error{nil},
	}
	w, _ := newTestWatcher(rec, time.Minute)

	before := w.State()
	w.Tick(context.Background())
	require.Equal(t, before.LastChange, w.State().LastChange)
}

func TestTickFailureUpdatesOnlyLastCheckAndContinues(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{{}},
		errs:    []error{errors.New("remote unreachable")},
	}
	w, _ := newTestWatcher(rec, time.Minute)

	before := w.State()
	require.NotPanics(t, func() { w.Tick(context.Background()) })
	after := w.State()

	require.True(t, after.LastCheck.After(before.LastCheck))
	require.Equal(t, before.LastChange, after.LastChange)
}

func TestRunStopsOnCancellation(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{{Status: engine.StatusUpToDate}},
		errs:    []error{nil},
	}
	w, _ := newTestWatcher(rec, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Let a few cycles complete before canceling during the sleep.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	require.GreaterOrEqual(t, rec.cycles, 1)
}

func TestRunCompletesCycleBeforeNext(t *testing.T) {
	rec := &scriptedReconciler{
		results: []engine.Result{
			{Status: engine.StatusSynchronized, Old: "abc123", New: "def456"},
			{Status: engine.StatusUpToDate},
		},
		errs: []error{nil, nil},
	}
	w, _ := newTestWatcher(rec, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, rec.cycles, 2)

	// The synchronized first cycle set LastChange; later idle cycles only
	// moved LastCheck forward.
	state := w.State()
	require.False(t, state.LastChange.IsZero())
	require.True(t, state.LastCheck.After(state.LastChange) || state.LastCheck.Equal(state.LastChange))
}
