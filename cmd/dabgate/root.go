package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dabgate",
		Short: "dabgate - promotion gates for asset bundle deployments",
		Long: `dabgate runs the CI/CD gates for asset bundle deployments.

The validate command checks deployed workspace state (table existence,
row-count thresholds, scheduled jobs) against a declarative config and
blocks promotion to the next environment when any check fails. The
coverage-check command gates on a measured unit-test coverage percentage.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newCoverageCheckCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
