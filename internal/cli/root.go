// Package cli wires the repotrack commands together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"repotrack.dev/repotrack/internal/config"
	"repotrack.dev/repotrack/internal/engine"
	repotrackerrors "repotrack.dev/repotrack/internal/errors"
	"repotrack.dev/repotrack/internal/git"
	"repotrack.dev/repotrack/internal/output"
	"repotrack.dev/repotrack/internal/remote"
	"repotrack.dev/repotrack/internal/watcher"
)

// NewRootCmd creates the root cobra command. Running it with no subcommand
// starts the watch loop.
func NewRootCmd(version, commit, date string) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "repotrack",
		Short: "Repotrack keeps a local working copy in sync with a remote branch",
		Long: `Repotrack polls a remote repository for new commits on a tracked branch
and keeps a local working copy aligned to it, unattended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, configPath)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName,
		"path to the configuration file")

	rootCmd.AddCommand(newCheckCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	return rootCmd
}

func runWatch(cmd *cobra.Command, configPath string) error {
	cfg, logger, err := loadSetup(configPath)
	if err != nil {
		return err
	}

	eng := newEngine(cfg, logger)
	status := output.NewStatusLine(cmd.OutOrStdout())
	w := watcher.New(eng, cfg.Interval(), logger, status)

	ctx := SetupSignalHandler()
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadSetup loads the configuration and builds the process logger. A missing
// configuration file is the one fatal startup condition: it is surfaced to
// the operator directly, acknowledged when running interactively, and the
// process exits non-zero.
func loadSetup(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, repotrackerrors.ErrConfigNotFound) {
			fmt.Fprintf(os.Stderr, "Config file not found at %q. Please ensure it is present.\n", configPath)
			waitForAcknowledgment()
			os.Exit(1)
		}
		return nil, nil, err
	}

	logger, err := output.NewLogger(output.LogFilePath(cfg.LogFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return cfg, logger, nil
}

// waitForAcknowledgment blocks until the operator presses enter, but only
// when attached to a terminal; unattended hosts must not hang on a prompt.
func waitForAcknowledgment() {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return
	}
	var ack string
	_ = survey.AskOne(&survey.Input{Message: "Press enter to exit."}, &ack)
}

func newEngine(cfg *config.Config, logger *slog.Logger) *engine.Engine {
	descriptor := remote.Descriptor{
		Organization: cfg.Organization,
		Project:      cfg.Project,
		Repository:   cfg.Repository,
		Branch:       cfg.TargetBranch,
		Token:        cfg.Token,
		QueryURL:     cfg.QueryURL,
		RepoURL:      cfg.URL,
	}

	resolver := remote.NewHTTPResolver(descriptor, nil)
	repo := git.NewRepository(cfg.RepoPath)
	if timeout := cfg.CommandTimeout(); timeout > 0 {
		repo.Runner().SetTimeout(timeout)
	}

	return engine.New(resolver, repo, descriptor, logger)
}
