// Package config provides loading and validation of the repotrack
// configuration file. The configuration is read once at startup and is
// immutable for the process lifetime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
)

// DefaultFileName is the well-known configuration file location, relative
// to the process working directory.
const DefaultFileName = "repotrack.yml"

// DefaultInterval is used when the configuration does not specify a poll
// interval.
const DefaultInterval = 30 * time.Second

// Config is the immutable startup configuration record.
type Config struct {
	// RepoPath is the local working copy being kept in sync.
	RepoPath string `yaml:"repo_path"`

	// TargetBranch is the single branch the working copy is aligned to.
	TargetBranch string `yaml:"target_branch"`

	// Token is the personal access token used for both the commit query
	// and the authenticated git operations.
	Token string `yaml:"token"`

	// IntervalSeconds is the fixed poll interval between cycles.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Organization, Project and Repository identify the remote repository
	// on Azure DevOps. They are ignored when URL is set.
	Organization string `yaml:"organization"`
	Project      string `yaml:"project"`
	Repository   string `yaml:"repository"`

	// URL is an optional fully-qualified remote repository URL, used in
	// place of the organization/project/repository triple for git
	// operations.
	URL string `yaml:"url"`

	// QueryURL is an optional fully-formed commit query URL, used in place
	// of the constructed commit-listing endpoint.
	QueryURL string `yaml:"query_url"`

	// CommandTimeoutSeconds bounds each git invocation. Zero keeps the
	// built-in default.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	// LogFile overrides the default log file location.
	LogFile string `yaml:"log_file"`
}

// CommandTimeout returns the per-git-command timeout, or zero when the
// default applies.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads the configuration file at path, applies defaults and
// environment overrides, and validates the result.
//
// A missing file is reported as errors.ErrConfigNotFound so the caller can
// distinguish the single fatal startup condition from a malformed file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", repotrackerrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = int(DefaultInterval / time.Second)
	}
}

// applyEnvOverrides applies environment variable overrides. Variables use
// the format REPOTRACK_FIELD and always take precedence over the file.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("REPOTRACK_REPO_PATH"); val != "" {
		cfg.RepoPath = val
	}
	if val := os.Getenv("REPOTRACK_TARGET_BRANCH"); val != "" {
		cfg.TargetBranch = val
	}
	if val := os.Getenv("REPOTRACK_TOKEN"); val != "" {
		cfg.Token = val
	}
	if val := os.Getenv("REPOTRACK_URL"); val != "" {
		cfg.URL = val
	}
	if val := os.Getenv("REPOTRACK_INTERVAL_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			cfg.IntervalSeconds = i
		}
	}
}

// Validate checks that the configuration describes a usable setup.
func Validate(cfg *Config) error {
	if cfg.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}
	if cfg.TargetBranch == "" {
		return fmt.Errorf("target_branch is required")
	}
	if cfg.Token == "" {
		return fmt.Errorf("token is required")
	}
	if cfg.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %d", cfg.IntervalSeconds)
	}
	if cfg.CommandTimeoutSeconds < 0 {
		return fmt.Errorf("command_timeout_seconds must not be negative, got %d", cfg.CommandTimeoutSeconds)
	}
	if cfg.URL == "" || cfg.QueryURL == "" {
		if cfg.Organization == "" || cfg.Project == "" || cfg.Repository == "" {
			return fmt.Errorf("either url and query_url, or all of organization, project and repository must be set")
		}
	}
	return nil
}
