// Package engine implements the reconciliation engine: it decides whether
// the working copy has diverged from the tracked branch and, when it has,
// drives the recovery protocol that brings the two back in line.
package engine

import (
	"context"
	"log/slog"
	"sync"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
	"repotrack.dev/repotrack/internal/git"
	"repotrack.dev/repotrack/internal/remote"
)

// Status describes the outcome of a successful reconciliation cycle.
type Status int

const (
	// StatusUpToDate means the local and remote heads were already equal.
	StatusUpToDate Status = iota
	// StatusSynchronized means recovery ran and the working copy now
	// matches the remote head.
	StatusSynchronized
)

// String returns the status name used in logs.
func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusSynchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

// Result is the outcome of one reconciliation cycle. Old and New are only
// set when Status is StatusSynchronized.
type Result struct {
	Status Status
	Old    string
	New    string
}

// Engine compares the local and remote heads and runs the recovery protocol
// on divergence. Only the engine mutates the working copy; a mutex
// serializes Reconcile so a manual invocation can never interleave with the
// poll loop.
type Engine struct {
	mu         sync.Mutex
	resolver   remote.Resolver
	repo       git.RepoOps
	descriptor remote.Descriptor
	logger     *slog.Logger
}

// New creates an Engine. The descriptor supplies the authenticated remote
// location passed explicitly to every fetch and pull.
func New(resolver remote.Resolver, repo git.RepoOps, descriptor remote.Descriptor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver:   resolver,
		repo:       repo,
		descriptor: descriptor,
		logger:     logger,
	}
}

// Reconcile runs one full compare-then-recover cycle.
//
// A failed identifier lookup never triggers repository mutation: recovery
// only starts once both heads are known and unequal. Each recovery stage
// runs to completion before the next begins, and every stage is re-runnable
// from scratch, so a partially-completed cycle self-heals on the next call.
func (e *Engine) Reconcile(ctx context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	remoteHead, err := e.resolver.Head(ctx)
	if err != nil {
		return Result{}, err
	}

	localHead, err := e.repo.ReadHead(ctx)
	if err != nil {
		return Result{}, err
	}

	if remoteHead == localHead {
		return Result{Status: StatusUpToDate}, nil
	}

	e.logger.Info("changes detected, synchronizing",
		"local", localHead,
		"remote", remoteHead,
		"repository", e.descriptor.Redacted())

	newHead, err := e.recover(ctx, remoteHead)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Status: StatusSynchronized,
		Old:    localHead,
		New:    newHead,
	}, nil
}

// recover drives the working copy through fetch, branch resolution and pull.
// The target branch's existence is verified fresh on every attempt because
// the working copy can be mutated out-of-band between cycles.
func (e *Engine) recover(ctx context.Context, remoteHead string) (string, error) {
	branch := e.descriptor.Branch

	gitURL, err := e.descriptor.GitURL()
	if err != nil {
		return "", repotrackerrors.NewRecoveryError(repotrackerrors.StageFetch, err)
	}

	if err := e.repo.Fetch(ctx, gitURL); err != nil {
		return "", repotrackerrors.NewRecoveryError(repotrackerrors.StageFetch, err)
	}

	exists, err := e.repo.HasBranch(ctx, branch)
	if err != nil {
		return "", repotrackerrors.NewRecoveryError(repotrackerrors.StageCheckout, err)
	}

	if !exists {
		e.logger.Info("creating branch", "branch", branch)
		if err := e.repo.CheckoutNew(ctx, branch); err != nil {
			return "", repotrackerrors.NewRecoveryError(repotrackerrors.StageBranchCreate, err)
		}
	} else {
		if err := e.repo.Checkout(ctx, branch); err != nil {
			return "", repotrackerrors.NewRecoveryError(repotrackerrors.StageCheckout, err)
		}
	}

	if err := e.repo.Pull(ctx, gitURL, branch); err != nil {
		return "", repotrackerrors.NewRecoveryError(repotrackerrors.StagePull, err)
	}

	// Confirm convergence rather than assuming the pull landed on the
	// resolver's head.
	newHead, err := e.repo.ReadHead(ctx)
	if err != nil {
		return "", err
	}
	if newHead != remoteHead {
		e.logger.Warn("pull completed but head does not match remote",
			"local", newHead,
			"remote", remoteHead)
	}
	return newHead, nil
}
