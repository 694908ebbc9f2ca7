package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amiya-ps-559/dab-project/internal/checks"
	"github.com/amiya-ps-559/dab-project/internal/config"
	"github.com/amiya-ps-559/dab-project/internal/probe"
	"github.com/amiya-ps-559/dab-project/internal/probe/databricks"
	"github.com/amiya-ps-559/dab-project/internal/reporting"
)

var (
	configPath       string
	workersFlag      int
	checkTimeoutFlag time.Duration
	junitPath        string
	outputPath       string
)

// newProbe builds the production probe from the environment. Swapped out by
// tests so the validate command can run against a fixture.
var newProbe = func() (probe.Probe, error) {
	return databricks.NewClientFromEnv()
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <environment>",
		Short: "Run post-deployment checks against an environment",
		Long: `Run the post-deployment checks declared for an environment and gate
promotion on the result.

The config document declares per-environment checks (table existence,
row-count minimums, scheduled-job existence). Every check runs even when
earlier checks fail, so one run reports everything that is wrong. Workspace
credentials are read from DATABRICKS_HOST, DATABRICKS_TOKEN,
DATABRICKS_WAREHOUSE_ID, and DATABRICKS_CATALOG.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "validation.yaml", "Path to the check config document")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent check workers (overrides config)")
	cmd.Flags().DurationVar(&checkTimeoutFlag, "check-timeout", 0, "Per-check timeout including retries (overrides config)")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the JSON report to this path")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	environment := args[0]

	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}
	specs, err := doc.Checks(environment)
	if err != nil {
		return err
	}

	p, err := newProbe()
	if err != nil {
		return err
	}

	opts := doc.RunnerOptions()
	if workersFlag > 0 {
		opts = append(opts, checks.WithWorkers(workersFlag))
	}
	if checkTimeoutFlag > 0 {
		opts = append(opts, checks.WithCheckTimeout(checkTimeoutFlag))
	}

	// An interrupt abandons in-flight checks; whatever completed is still
	// reported, marked as a partial run.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := checks.NewRunner(p, opts...)
	report := runner.Run(ctx, environment, specs)

	fmt.Fprint(cmd.OutOrStdout(), formatReport(report))

	if junitPath != "" {
		if err := reporting.WriteJUnitXML(report, junitPath); err != nil {
			return fmt.Errorf("writing JUnit report: %w", err)
		}
	}
	if outputPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	digest := report.Digest()
	switch report.Outcome() {
	case checks.OutcomeAborted:
		return &AbortedError{Message: fmt.Sprintf(
			"validation aborted: %d of %d checks completed", digest.Total-digest.Skipped, digest.Total)}
	case checks.OutcomeFailed:
		return &CheckFailureError{Message: fmt.Sprintf(
			"validation failed: %d failed, %d error(s) out of %d checks", digest.Failed, digest.Errors, digest.Total)}
	}
	return nil
}
