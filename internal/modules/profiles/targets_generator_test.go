package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optibench/internal/modules/results"
)

func TestComputeTargetValuesNoHistories(t *testing.T) {
	generator := NewTargetsGenerator()
	_, err := generator.Compute(GeneratorOptions{TargetsNumber: 2})
	assert.ErrorIs(t, err, ErrNoReferenceHistories)
}

func TestComputeTargetValuesSingleHistory(t *testing.T) {
	generator := NewTargetsGenerator()
	generator.AddHistory(newHistory(t, []float64{10, 8, 6, 4}, nil))

	targets, err := generator.Compute(GeneratorOptions{TargetsNumber: 4})
	require.NoError(t, err)
	require.Equal(t, 4, targets.Len())
	assert.Equal(t, []float64{10, 8, 6, 4}, targets.ObjectiveValues())
}

func TestComputeTargetValuesMedianOfReferences(t *testing.T) {
	generator := NewTargetsGenerator()
	generator.AddHistory(newHistory(t, []float64{10, 4}, nil))
	generator.AddHistory(newHistory(t, []float64{9, 5}, nil))
	generator.AddHistory(newHistory(t, []float64{8, 6}, nil))

	// The best reference value is 4, so only the first history reaches the
	// best target; the targets are sampled from that history alone.
	targets, err := generator.Compute(GeneratorOptions{TargetsNumber: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 4}, targets.ObjectiveValues())
}

func TestComputeTargetValuesTruncatesAtBestTarget(t *testing.T) {
	generator := NewTargetsGenerator()
	best := 5.0
	generator.AddHistory(newHistory(t, []float64{9, 5, 4, 4, 4, 4}, nil))

	targets, err := generator.Compute(GeneratorOptions{
		TargetsNumber:       2,
		BestTargetObjective: &best,
	})
	require.NoError(t, err)
	// The history reaches the best target at its second evaluation; the
	// stagnating tail is dropped before sampling.
	assert.Equal(t, []float64{9, 5}, targets.ObjectiveValues())
}

func TestComputeTargetValuesInfeasibleBest(t *testing.T) {
	generator := NewTargetsGenerator()
	history, err := results.NewPerformanceHistory([]float64{3, 2}, []float64{1, 1}, nil)
	require.NoError(t, err)
	generator.AddHistory(history)

	_, err = generator.Compute(GeneratorOptions{TargetsNumber: 1, OnlyFeasible: true})
	assert.ErrorIs(t, err, ErrInfeasibleBestTarget)
}

func TestComputeTargetValuesBestTargetNotReached(t *testing.T) {
	generator := NewTargetsGenerator()
	best := -10.0
	generator.AddHistory(newHistory(t, []float64{3, 2}, nil))

	_, err := generator.Compute(GeneratorOptions{
		TargetsNumber:       1,
		BestTargetObjective: &best,
	})
	assert.ErrorIs(t, err, ErrBestTargetNotReached)
}

func TestComputeTargetValuesTooManyTargets(t *testing.T) {
	generator := NewTargetsGenerator()
	generator.AddHistory(newHistory(t, []float64{3, 2}, nil))

	_, err := generator.Compute(GeneratorOptions{TargetsNumber: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "greater than the size of the longest history")
}

func TestComputeTargetValuesToleranceRelaxesBest(t *testing.T) {
	generator := NewTargetsGenerator()
	generator.AddHistory(newHistory(t, []float64{10, 4}, nil))
	generator.AddHistory(newHistory(t, []float64{9, 4.1}, nil))

	// Without tolerance only the first history reaches the best value 4;
	// with a 5% tolerance the second one (4.1 <= 4.2) counts as well.
	targets, err := generator.Compute(GeneratorOptions{
		TargetsNumber:       2,
		BestTargetTolerance: 0.05,
	})
	require.NoError(t, err)
	// Median-low of {10, 9} then {4, 4.1}.
	assert.Equal(t, []float64{9, 4}, targets.ObjectiveValues())
}
