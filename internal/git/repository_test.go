package git_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
	"repotrack.dev/repotrack/internal/git"
	"repotrack.dev/repotrack/testhelpers"
)

func TestReadHead(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	expected, err := scene.Local.Head()
	require.NoError(t, err)

	head, err := repo.ReadHead(context.Background())
	require.NoError(t, err)
	require.Equal(t, expected, head)
	require.Len(t, head, 40)
}

func TestReadHeadNotARepository(t *testing.T) {
	repo := git.NewRepository(t.TempDir())

	_, err := repo.ReadHead(context.Background())
	require.ErrorIs(t, err, repotrackerrors.ErrNotARepository)

	var inspErr *repotrackerrors.LocalInspectionError
	require.ErrorAs(t, err, &inspErr)
}

func TestFetchWithExplicitURL(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	// The clone's remote was removed: fetch must work from the explicit
	// URL alone.
	upstreamHead := scene.AdvanceUpstream(t, "second")
	require.NoError(t, repo.Fetch(context.Background(), scene.Upstream.Dir))

	remoteRef, err := scene.Local.RunGitCommandAndGetOutput("rev-parse", "refs/remotes/origin/main")
	require.NoError(t, err)
	require.Equal(t, upstreamHead, remoteRef)
}

func TestFetchPrunesDeletedBranches(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	require.NoError(t, scene.Upstream.RunGitCommand("branch", "doomed"))
	require.NoError(t, repo.Fetch(context.Background(), scene.Upstream.Dir))
	_, err := scene.Local.RunGitCommandAndGetOutput("rev-parse", "refs/remotes/origin/doomed")
	require.NoError(t, err)

	require.NoError(t, scene.Upstream.DeleteBranch("doomed"))
	require.NoError(t, repo.Fetch(context.Background(), scene.Upstream.Dir))
	_, err = scene.Local.RunGitCommandAndGetOutput("rev-parse", "refs/remotes/origin/doomed")
	require.Error(t, err, "pruned ref must be gone")
}

func TestFetchFailureCapturesOutput(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	err := repo.Fetch(context.Background(), filepath.Join(t.TempDir(), "no-such-remote"))
	require.Error(t, err)

	var cmdErr *repotrackerrors.GitCommandError
	require.ErrorAs(t, err, &cmdErr)
	require.NotEmpty(t, cmdErr.Stderr)
}

func TestHasBranch(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	exists, err := repo.HasBranch(context.Background(), "main")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.HasBranch(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestHasBranchSurfacesCancellation(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A canceled probe must not be mistaken for a missing branch.
	_, err := repo.HasBranch(ctx, "main")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckoutNew(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	require.NoError(t, repo.Fetch(context.Background(), scene.Upstream.Dir))

	// Drop the local branch so only the remote-tracking ref remains.
	require.NoError(t, scene.Local.RunGitCommand("checkout", "--detach"))
	require.NoError(t, scene.Local.DeleteBranch("main"))

	require.NoError(t, repo.CheckoutNew(context.Background(), "main"))

	branch, err := scene.Local.CurrentBranch()
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestCheckoutExisting(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	require.NoError(t, scene.Local.RunGitCommand("checkout", "--detach"))
	require.NoError(t, repo.Checkout(context.Background(), "main"))

	branch, err := scene.Local.CurrentBranch()
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestPullConverges(t *testing.T) {
	scene := testhelpers.NewScene(t)
	repo := git.NewRepository(scene.Local.Dir)

	upstreamHead := scene.AdvanceUpstream(t, "second")
	require.NoError(t, repo.Fetch(context.Background(), scene.Upstream.Dir))
	require.NoError(t, repo.Pull(context.Background(), scene.Upstream.Dir, "main"))

	head, err := repo.ReadHead(context.Background())
	require.NoError(t, err)
	require.Equal(t, upstreamHead, head)
}
