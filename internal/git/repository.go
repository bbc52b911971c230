package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
)

// RepoOps is the narrow capability the reconciliation engine needs from a
// working copy. The engine's protocol logic is written against this
// interface so it can be exercised with a fake implementation and so an
// alternative backend can be substituted without touching the engine.
type RepoOps interface {
	// ReadHead returns the commit identifier at the checked-out head. It
	// must not mutate the working copy.
	ReadHead(ctx context.Context) (string, error)

	// Fetch retrieves all remote branch refs from remoteURL into
	// refs/remotes/origin/*, pruning refs deleted upstream.
	Fetch(ctx context.Context, remoteURL string) error

	// HasBranch reports whether the branch exists in the local ref
	// namespace. The answer is computed fresh on every call.
	HasBranch(ctx context.Context, branch string) (bool, error)

	// Checkout switches the working copy to an existing local branch.
	Checkout(ctx context.Context, branch string) error

	// CheckoutNew creates the branch at the fetched origin/<branch> ref and
	// switches to it.
	CheckoutNew(ctx context.Context, branch string) error

	// Pull reconciles the checked-out branch with the named branch at
	// remoteURL.
	Pull(ctx context.Context, remoteURL, branch string) error
}

// Repository implements RepoOps against a working copy on disk. Mutating
// operations shell out to the git tool; head inspection goes through go-git
// and cannot touch the worktree.
type Repository struct {
	path   string
	runner *CommandRunner
}

// NewRepository returns a Repository for the working copy at path.
func NewRepository(path string) *Repository {
	return &Repository{
		path:   path,
		runner: NewCommandRunner(path),
	}
}

// Path returns the working copy location.
func (r *Repository) Path() string {
	return r.path
}

// Runner exposes the underlying command runner so callers can adjust the
// per-command timeout.
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// ReadHead returns the commit identifier currently checked out.
func (r *Repository) ReadHead(ctx context.Context) (string, error) {
	repo, err := gogit.PlainOpen(r.path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return "", repotrackerrors.NewLocalInspectionError(r.path, repotrackerrors.ErrNotARepository)
		}
		return "", repotrackerrors.NewLocalInspectionError(r.path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", repotrackerrors.NewLocalInspectionError(r.path, err)
	}
	return head.Hash().String(), nil
}

// Fetch retrieves all remote branch refs, pruning deleted ones. The remote
// location is passed explicitly on every invocation; the working copy may
// have been provisioned without a configured remote.
func (r *Repository) Fetch(ctx context.Context, remoteURL string) error {
	_, err := r.runner.Run(ctx, "fetch", "--prune", remoteURL, "+refs/heads/*:refs/remotes/origin/*")
	return err
}

// HasBranch reports whether the branch exists locally. rev-parse signals a
// missing ref through its exit status, so only commands the context aborted
// are surfaced as errors rather than as "absent".
func (r *Repository) HasBranch(ctx context.Context, branch string) (bool, error) {
	_, err := r.runner.Run(ctx, "rev-parse", "--verify", "refs/heads/"+branch)
	if err != nil {
		var cmdErr *repotrackerrors.GitCommandError
		if errors.As(err, &cmdErr) &&
			!errors.Is(cmdErr.Err, context.DeadlineExceeded) &&
			!errors.Is(cmdErr.Err, context.Canceled) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Checkout switches to an existing local branch.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	_, err := r.runner.Run(ctx, "checkout", branch)
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch, err)
	}
	return nil
}

// CheckoutNew creates the branch at origin/<branch> and switches to it. The
// start point is named explicitly and no tracking configuration is written;
// setting up tracking requires a configured remote, which the working copy
// may not have, and Pull passes the remote location on every call anyway.
func (r *Repository) CheckoutNew(ctx context.Context, branch string) error {
	_, err := r.runner.Run(ctx, "checkout", "-b", branch, "origin/"+branch)
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

// Pull reconciles the checked-out branch with the remote branch, passing the
// remote location and branch name explicitly rather than relying on an
// implicit default pairing.
func (r *Repository) Pull(ctx context.Context, remoteURL, branch string) error {
	_, err := r.runner.Run(ctx, "pull", remoteURL, branch)
	return err
}
