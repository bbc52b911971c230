package testhelpers

import (
	"path/filepath"
	"testing"
)

// Scene is a test fixture: an upstream repository plus a local working copy
// cloned from it, mirroring the deployment shape repotrack runs against.
type Scene struct {
	// Upstream is the repository standing in for the remote server. Its
	// URL is Upstream.Dir, which git accepts as a fetch/pull location.
	Upstream *GitRepo

	// Local is the working copy being kept in sync.
	Local *GitRepo
}

// NewScene creates an upstream repository with one commit and a local clone
// of it. Cleanup is handled by t.TempDir.
func NewScene(t *testing.T) *Scene {
	t.Helper()

	root := t.TempDir()

	upstream, err := NewGitRepo(filepath.Join(root, "upstream"))
	if err != nil {
		t.Fatalf("failed to create upstream repo: %v", err)
	}
	if err := upstream.CreateChangeAndCommit("initial", "initial commit"); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}

	local, err := NewClonedRepo(filepath.Join(root, "local"), upstream.Dir)
	if err != nil {
		t.Fatalf("failed to clone local repo: %v", err)
	}

	return &Scene{
		Upstream: upstream,
		Local:    local,
	}
}

// AdvanceUpstream adds a commit on the upstream main branch and returns the
// new head identifier.
func (s *Scene) AdvanceUpstream(t *testing.T, content string) string {
	t.Helper()

	if err := s.Upstream.CreateChangeAndCommit(content, "update "+content); err != nil {
		t.Fatalf("failed to advance upstream: %v", err)
	}
	head, err := s.Upstream.Head()
	if err != nil {
		t.Fatalf("failed to read upstream head: %v", err)
	}
	return head
}
