package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amiya-ps-559/dab-project/internal/coverage"
)

var (
	thresholdFlag float64
	coverageFile  string
)

func newCoverageCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage-check [percent]",
		Short: "Gate on a measured unit-test coverage percentage",
		Long: `Gate the pipeline on unit-test coverage.

The measured percentage comes from the test runner, either as an argument
("82.5" or "82.5%") or via --from-file pointing at a file containing the
percentage or raw "go test -cover" output. The gate passes when the
percentage meets the threshold; the boundary is inclusive.

This gate is independent of validate and typically runs at an earlier
pipeline stage (post-test, pre-deploy).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCoverageCheck,
	}

	cmd.Flags().Float64Var(&thresholdFlag, "threshold", coverage.DefaultThreshold, "Minimum required coverage percentage")
	cmd.Flags().StringVar(&coverageFile, "from-file", "", "Read the percentage from a file")

	return cmd
}

func runCoverageCheck(cmd *cobra.Command, args []string) error {
	var percent float64
	var err error
	switch {
	case len(args) == 1 && coverageFile != "":
		return fmt.Errorf("pass either a percentage argument or --from-file, not both")
	case len(args) == 1:
		percent, err = coverage.ParsePercent(args[0])
	case coverageFile != "":
		percent, err = coverage.ParseFile(coverageFile)
	default:
		return fmt.Errorf("a percentage argument or --from-file is required")
	}
	if err != nil {
		return err
	}

	gate := coverage.NewGate(thresholdFlag)
	if err := gate.Evaluate(percent); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "coverage %.1f%% meets threshold %.1f%%\n", percent, gate.Threshold)
	return nil
}
