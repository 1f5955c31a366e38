package profiles

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optibench/internal/modules/results"
)

func newHistory(t *testing.T, performances, infeasibilities []float64) *results.PerformanceHistory {
	t.Helper()
	history, err := results.NewPerformanceHistory(performances, infeasibilities, nil)
	require.NoError(t, err)
	return history
}

func newTargets(t *testing.T, performances, infeasibilities []float64) *TargetValues {
	t.Helper()
	return NewTargetValues(newHistory(t, performances, infeasibilities).Items...)
}

func TestCountTargetsHit(t *testing.T) {
	targets := newTargets(t, []float64{9, 7}, nil)
	history := newHistory(t, []float64{10, 8, 9}, nil)

	counts, err := targets.CountTargetsHit(history)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, counts)
}

func TestCountTargetsHitIsNonDecreasingAndBounded(t *testing.T) {
	targets := newTargets(t, []float64{5, 2, 0, -1}, nil)
	history := newHistory(t, []float64{7, 3, 4, 1, -2, 6}, nil)

	counts, err := targets.CountTargetsHit(history)
	require.NoError(t, err)
	require.Len(t, counts, history.Len())
	for i := 1; i < len(counts); i++ {
		assert.GreaterOrEqual(t, counts[i], counts[i-1])
	}
	assert.LessOrEqual(t, counts[len(counts)-1], targets.Len())
	assert.Equal(t, []int{0, 1, 1, 2, 4, 4}, counts)
}

func TestCountTargetsHitInfeasibleTargets(t *testing.T) {
	// An infeasible target is hit once the infeasibility measure drops to
	// its threshold.
	targets := NewTargetValues(
		results.HistoryItem{PerformanceMeasure: 2, InfeasibilityMeasure: 3},
		results.HistoryItem{PerformanceMeasure: 1},
	)
	history, err := results.NewPerformanceHistory(
		[]float64{5, 2, 1}, []float64{4, 2, 0}, nil,
	)
	require.NoError(t, err)

	counts, err := targets.CountTargetsHit(history)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, counts)
}

func TestCountTargetsHitEmptyHistory(t *testing.T) {
	targets := newTargets(t, []float64{1}, nil)
	_, err := targets.CountTargetsHit(&results.PerformanceHistory{})
	assert.ErrorIs(t, err, results.ErrEmptyHistory)
}

func TestObjectiveValues(t *testing.T) {
	targets := NewTargetValues(
		results.HistoryItem{PerformanceMeasure: 3, InfeasibilityMeasure: 1, UnsatisfiedConstraints: 1},
		results.HistoryItem{PerformanceMeasure: 2},
		results.HistoryItem{PerformanceMeasure: 1},
	)

	values := targets.ObjectiveValues()
	require.Len(t, values, 3)
	assert.True(t, math.IsInf(values[0], 1))
	assert.Equal(t, []float64{2, 1}, values[1:])
	assert.Equal(t, []float64{2, 1}, targets.FeasibleObjectiveValues())
}

func TestTargetValuesFileRoundTrip(t *testing.T) {
	targets := newTargets(t, []float64{3, 2, 1}, []float64{1, 0, 0})
	path := filepath.Join(t.TempDir(), "targets.json")
	require.NoError(t, targets.ToFile(path))

	loaded, err := TargetValuesFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, targets.Items, loaded.Items)
}
