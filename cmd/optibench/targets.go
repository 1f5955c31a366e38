package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aristath/optibench/internal/modules/profiles"
	"github.com/aristath/optibench/internal/modules/results"
)

var (
	targetsHistoriesGlob string
	targetsOutput        string
	targetsNumber        int
	targetsBudgetMin     int
	targetsOnlyFeasible  bool
	targetsBest          float64
	targetsBestSet       bool
	targetsTolerance     float64
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Compute target values from reference performance histories",
	Long: `Computes the target values of a problem out of reference performance
histories, typically produced by trusted algorithms, and writes them to a
JSON file usable as a scenario targets_file.`,
	RunE: runTargets,
}

func init() {
	targetsCmd.Flags().StringVar(&targetsHistoriesGlob, "histories", "",
		"Glob of reference history JSON files (required)")
	targetsCmd.Flags().StringVarP(&targetsOutput, "output", "o", "",
		"Path of the target values JSON file to write (required)")
	targetsCmd.Flags().IntVarP(&targetsNumber, "number", "n", 10,
		"Number of targets to compute")
	targetsCmd.Flags().IntVar(&targetsBudgetMin, "budget-min", 1,
		"Evaluation budget of the easiest target")
	targetsCmd.Flags().BoolVar(&targetsOnlyFeasible, "only-feasible", false,
		"Require every target to be feasible")
	targetsCmd.Flags().Float64Var(&targetsBest, "best-target", 0,
		"Objective value of the hardest target (inferred when omitted)")
	targetsCmd.Flags().Float64Var(&targetsTolerance, "best-target-tolerance", 0,
		"Relaxation tolerance for comparisons with the best target")
	_ = targetsCmd.MarkFlagRequired("histories")
	_ = targetsCmd.MarkFlagRequired("output")
}

func runTargets(cmd *cobra.Command, args []string) error {
	_, log, err := setup()
	if err != nil {
		return err
	}
	targetsBestSet = cmd.Flags().Changed("best-target")

	paths, err := filepath.Glob(targetsHistoriesGlob)
	if err != nil {
		return fmt.Errorf("invalid histories pattern %q: %w", targetsHistoriesGlob, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no history file matches %q", targetsHistoriesGlob)
	}
	sort.Strings(paths)

	generator := profiles.NewTargetsGenerator()
	for _, path := range paths {
		history, err := results.FromFile(path)
		if err != nil {
			return err
		}
		generator.AddHistory(history)
	}

	options := profiles.GeneratorOptions{
		TargetsNumber:       targetsNumber,
		BudgetMin:           targetsBudgetMin,
		OnlyFeasible:        targetsOnlyFeasible,
		BestTargetTolerance: targetsTolerance,
	}
	if targetsBestSet {
		options.BestTargetObjective = &targetsBest
	}

	targetValues, err := generator.Compute(options)
	if err != nil {
		return err
	}
	if err := targetValues.ToFile(targetsOutput); err != nil {
		return err
	}

	log.Info().
		Int("targets", targetValues.Len()).
		Int("references", len(paths)).
		Str("path", targetsOutput).
		Msg("Target values written")
	return nil
}
