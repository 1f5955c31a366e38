package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runOverwrite bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark a scenario and generate its report",
	Long: `Runs every (algorithm configuration, problem, starting point) instance of
the scenario, then generates the RST report sources from the results.

Instances already recorded in the results index are skipped unless
--overwrite is given.`,
	RunE: runRun,
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Benchmark a scenario without generating the report",
	RunE:  runBenchmark,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the report from an existing results index",
	RunE:  runReport,
}

func init() {
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false,
		"Re-run instances already present in the results index")
	benchmarkCmd.Flags().BoolVar(&runOverwrite, "overwrite", false,
		"Re-run instances already present in the results index")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	orchestrator, err := loadOrchestrator(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return orchestrator.Run(ctx, runOverwrite)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	orchestrator, err := loadOrchestrator(cfg, log, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := orchestrator.Benchmark(ctx, runOverwrite); err != nil {
		return err
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	orchestrator, err := loadOrchestrator(cfg, log, nil)
	if err != nil {
		return err
	}

	return orchestrator.Report()
}
