package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"repotrack.dev/repotrack/internal/config"
	repotrackerrors "repotrack.dev/repotrack/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOrganizationVariant(t *testing.T) {
	path := writeConfig(t, `
repo_path: /srv/checkout
target_branch: main
token: secret
interval_seconds: 15
organization: acme
project: tools
repository: widgets
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/checkout", cfg.RepoPath)
	require.Equal(t, "main", cfg.TargetBranch)
	require.Equal(t, "acme", cfg.Organization)
	require.Equal(t, 15*time.Second, cfg.Interval())
}

func TestLoadURLVariant(t *testing.T) {
	path := writeConfig(t, `
repo_path: /srv/checkout
target_branch: main
token: secret
url: https://server.example/collection/_git/widgets
query_url: https://server.example/collection/_apis/git/repositories/widgets/commits?branchName=main
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://server.example/collection/_git/widgets", cfg.URL)
	require.NotEmpty(t, cfg.QueryURL)
}

func TestLoadAppliesDefaultInterval(t *testing.T) {
	path := writeConfig(t, `
repo_path: /srv/checkout
target_branch: main
token: secret
organization: acme
project: tools
repository: widgets
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultInterval, cfg.Interval())
}

func TestLoadMissingFileIsFatalSentinel(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.ErrorIs(t, err, repotrackerrors.ErrConfigNotFound)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "repo_path: [unterminated")
	_, err := config.Load(path)
	require.Error(t, err)
	require.NotErrorIs(t, err, repotrackerrors.ErrConfigNotFound)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
repo_path: /srv/checkout
target_branch: main
token: from-file
interval_seconds: 15
organization: acme
project: tools
repository: widgets
`)

	t.Setenv("REPOTRACK_TOKEN", "from-env")
	t.Setenv("REPOTRACK_INTERVAL_SECONDS", "60")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Token)
	require.Equal(t, 60*time.Second, cfg.Interval())
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			RepoPath:        "/srv/checkout",
			TargetBranch:    "main",
			Token:           "secret",
			IntervalSeconds: 30,
			Organization:    "acme",
			Project:         "tools",
			Repository:      "widgets",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"missing repo path", func(c *config.Config) { c.RepoPath = "" }, "repo_path"},
		{"missing branch", func(c *config.Config) { c.TargetBranch = "" }, "target_branch"},
		{"missing token", func(c *config.Config) { c.Token = "" }, "token"},
		{"zero interval", func(c *config.Config) { c.IntervalSeconds = 0 }, "interval_seconds"},
		{"incomplete remote", func(c *config.Config) { c.Project = "" }, "organization"},
		{
			"url pair replaces identifiers",
			func(c *config.Config) {
				c.Organization, c.Project, c.Repository = "", "", ""
				c.URL = "https://server.example/_git/widgets"
				c.QueryURL = "https://server.example/commits"
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := config.Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
