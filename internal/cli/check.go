package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"repotrack.dev/repotrack/internal/engine"
)

// newCheckCmd creates the check command, which runs a single reconciliation
// cycle and reports the outcome.
func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one reconciliation cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSetup(*configPath)
			if err != nil {
				return err
			}

			eng := newEngine(cfg, logger)
			result, err := eng.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			switch result.Status {
			case engine.StatusSynchronized:
				fmt.Fprintf(cmd.OutOrStdout(), "synchronized %s -> %s\n", result.Old, result.New)
			case engine.StatusUpToDate:
				fmt.Fprintln(cmd.OutOrStdout(), "up to date")
			}
			return nil
		},
	}
}
