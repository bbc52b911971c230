// Package testhelpers provides real-git fixtures for integration-style
// tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const textFileName = "test.txt"

// GitRepo represents a git repository created for a test.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new repository in dir with a main default branch
// and a test identity configured.
func NewGitRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	repo := &GitRepo{Dir: dir}
	if err := repo.RunGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewClonedRepo clones an existing repository into dir.
func NewClonedRepo(dir, srcPath string) (*GitRepo, error) {
	cmd := exec.Command("git", "clone", srcPath, dir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to clone repo: %w", err)
	}

	repo := &GitRepo{Dir: dir}
	if err := repo.RunGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	// Tests exercise explicit remote URLs, so the implicit clone remote
	// must not mask missing-remote behavior.
	if err := repo.RunGitCommand("remote", "remove", "origin"); err != nil {
		return nil, err
	}
	return repo, nil
}

// RunGitCommand executes a git command in the repository directory.
func (r *GitRepo) RunGitCommand(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	return cmd.Run()
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed
// output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CreateChangeAndCommit writes content to the test file and commits it.
func (r *GitRepo) CreateChangeAndCommit(content, message string) error {
	path := filepath.Join(r.Dir, textFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	if err := r.RunGitCommand("add", "."); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-m", message)
}

// Head returns the commit identifier at HEAD.
func (r *GitRepo) Head() (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", "HEAD")
}

// CurrentBranch returns the checked-out branch name.
func (r *GitRepo) CurrentBranch() (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", "--abbrev-ref", "HEAD")
}

// DeleteBranch removes a local branch.
func (r *GitRepo) DeleteBranch(name string) error {
	return r.RunGitCommand("branch", "-D", name)
}
