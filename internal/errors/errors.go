// Package errors provides sentinel errors and custom error types for the
// repotrack application. Use errors.Is() and errors.As() to check for
// specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrConfigNotFound indicates that the startup configuration file is
	// missing. It is the only fatal condition: no reconciliation can
	// proceed without configuration.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrEmptyHistory indicates that the remote reported no commits for
	// the tracked branch
	ErrEmptyHistory = errors.New("remote branch has no commits")

	// ErrUnauthorized indicates that the remote rejected the access token
	ErrUnauthorized = errors.New("remote authentication failed")

	// ErrMalformedResponse indicates that the remote returned a body the
	// resolver could not interpret
	ErrMalformedResponse = errors.New("malformed remote response")

	// ErrNotARepository indicates that the configured path is not a valid
	// working copy
	ErrNotARepository = errors.New("not a git repository")

	// ErrFetchFailed indicates that the fetch stage of recovery failed
	ErrFetchFailed = errors.New("fetch failed")

	// ErrBranchCreateFailed indicates that creating the tracking branch failed
	ErrBranchCreateFailed = errors.New("branch create failed")

	// ErrCheckoutFailed indicates that switching to the tracked branch failed
	ErrCheckoutFailed = errors.New("checkout failed")

	// ErrPullFailed indicates that the pull stage of recovery failed
	ErrPullFailed = errors.New("pull failed")
)

// RemoteQueryError represents a failure while querying the remote for the
// head of the tracked branch
type RemoteQueryError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteQueryError) Error() string {
	msg := fmt.Sprintf("remote query failed: %s", e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// NewRemoteQueryError creates a new RemoteQueryError
func NewRemoteQueryError(url string, statusCode int, err error) *RemoteQueryError {
	return &RemoteQueryError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// LocalInspectionError represents a failure while reading the head of the
// local working copy
type LocalInspectionError struct {
	Path string
	Err  error
}

func (e *LocalInspectionError) Error() string {
	return fmt.Sprintf("unable to inspect working copy at %q: %v", e.Path, e.Err)
}

func (e *LocalInspectionError) Unwrap() error {
	return e.Err
}

// NewLocalInspectionError creates a new LocalInspectionError
func NewLocalInspectionError(path string, err error) *LocalInspectionError {
	return &LocalInspectionError{Path: path, Err: err}
}

// Stage identifies a step of the recovery protocol
type Stage int

const (
	// StageFetch retrieves all remote branch refs, pruning deleted ones
	StageFetch Stage = iota
	// StageBranchCreate creates the tracked branch from its remote ref
	StageBranchCreate
	// StageCheckout switches the working copy to the tracked branch
	StageCheckout
	// StagePull fast-forwards the tracked branch to the remote head
	StagePull
)

// String returns the stage name used in logs and error messages
func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageBranchCreate:
		return "branch-create"
	case StageCheckout:
		return "checkout"
	case StagePull:
		return "pull"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// sentinel returns the sentinel error matched by errors.Is for this stage
func (s Stage) sentinel() error {
	switch s {
	case StageFetch:
		return ErrFetchFailed
	case StageBranchCreate:
		return ErrBranchCreateFailed
	case StageCheckout:
		return ErrCheckoutFailed
	case StagePull:
		return ErrPullFailed
	default:
		return nil
	}
}

// RecoveryError represents a failure of one stage of the recovery protocol
type RecoveryError struct {
	Stage Stage
	Err   error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recovery stage %s failed: %v", e.Stage, e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Is returns true if the target is the sentinel for this recovery stage
func (e *RecoveryError) Is(target error) bool {
	return target == e.Stage.sentinel()
}

// NewRecoveryError creates a new RecoveryError
func NewRecoveryError(stage Stage, err error) *RecoveryError {
	return &RecoveryError{Stage: stage, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
