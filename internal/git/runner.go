// Package git provides a wrapper around git commands and go-git for
// working-copy operations.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of git commands in a working directory
type CommandRunner struct {
	workingDir string
	timeout    time.Duration
}

// NewCommandRunner creates a new CommandRunner for the given directory
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{
		workingDir: workingDir,
		timeout:    DefaultCommandTimeout,
	}
}

// SetTimeout overrides the per-command timeout applied when the caller's
// context carries no deadline of its own.
func (r *CommandRunner) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		r.timeout = timeout
	}
}

// WorkingDir returns the directory commands run in.
func (r *CommandRunner) WorkingDir() string {
	return r.workingDir
}

// Run executes a git command and returns its trimmed stdout. Failures carry
// the captured stdout and stderr so a cycle can be diagnosed without
// reproducing it.
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Report the context error on timeout or cancellation so callers
		// can tell an aborted command from one git rejected.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", repotrackerrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctxErr)
		}
		return "", repotrackerrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
