// Package main is the entry point of the optibench command line tool.
//
// optibench benchmarks optimization algorithm configurations on reference
// problems, computes data profiles and generates an RST report of the
// results. Scenarios are described in YAML files; outputs (history files,
// results index, run catalog, report sources) live under one data directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/optibench/internal/config"
	"github.com/aristath/optibench/internal/modules/benchmarker"
	"github.com/aristath/optibench/internal/scenario"
	"github.com/aristath/optibench/pkg/logger"
)

var (
	scenarioPath string
	dataDir      string
	logLevel     string
	prettyLogs   bool
)

var rootCmd = &cobra.Command{
	Use:           "optibench",
	Short:         "Benchmark optimization algorithms and report their performance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "",
		"Path to the scenario YAML file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "",
		"Output directory (overrides OPTIBENCH_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false,
		"Pretty console log output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(archiveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the environment configuration, applies flag overrides and
// builds the logger every command shares.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	if dataDir != "" {
		absolute, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("failed to resolve data directory: %w", err)
		}
		if err := os.MkdirAll(absolute, 0o755); err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("failed to create data directory: %w", err)
		}
		cfg.DataDir = absolute
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: prettyLogs || cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	return cfg, log, nil
}

// loadOrchestrator builds the scenario orchestrator for commands that need
// one. The --scenario flag is required for them.
func loadOrchestrator(
	cfg *config.Config,
	log zerolog.Logger,
	sink benchmarker.EventSink,
) (*scenario.Orchestrator, error) {
	if scenarioPath == "" {
		return nil, fmt.Errorf("a scenario file is required, pass --scenario")
	}

	sc, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return nil, err
	}

	return scenario.New(scenario.Options{
		Scenario:  sc,
		Registry:  builtinRegistry(log),
		DataDir:   cfg.DataDir,
		EventSink: sink,
		Log:       log,
	})
}
