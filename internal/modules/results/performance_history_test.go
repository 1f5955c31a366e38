package results

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optibench/internal/modules/algorithms"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

func newHistory(t *testing.T, performances, infeasibilities []float64) *PerformanceHistory {
	t.Helper()
	history, err := NewPerformanceHistory(performances, infeasibilities, nil)
	require.NoError(t, err)
	return history
}

func items(t *testing.T, performances, infeasibilities []float64) []HistoryItem {
	t.Helper()
	return newHistory(t, performances, infeasibilities).Items
}

func TestNewHistoryItemRejectsNegativeInfeasibility(t *testing.T) {
	_, err := NewHistoryItem(1.0, -1.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be non-negative")
}

func TestNewPerformanceHistoryLengthMismatch(t *testing.T) {
	_, err := NewPerformanceHistory([]float64{1, 2}, []float64{0}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "infeasibility history")

	_, err = NewPerformanceHistory([]float64{1, 2}, []float64{0, 0}, []int{0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsatisfied constraints history")

	_, err = NewFeasibilityHistory([]float64{1, 2}, []bool{true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feasibility history")
}

func TestNewFeasibilityHistoryInfeasibilityMeasures(t *testing.T) {
	history, err := NewFeasibilityHistory([]float64{1, 2}, []bool{true, false}, nil)
	require.NoError(t, err)

	assert.Zero(t, history.Items[0].InfeasibilityMeasure)
	assert.Equal(t, 0, history.Items[0].UnsatisfiedConstraints)
	assert.True(t, math.IsInf(history.Items[1].InfeasibilityMeasure, 1))
	assert.Equal(t, UnknownConstraints, history.Items[1].UnsatisfiedConstraints)
}

func TestMinimum(t *testing.T) {
	history := newHistory(t, []float64{0, -3, -1, 0, 1, -1}, []float64{2, 3, 1, 0, 0, 0})

	minimum, err := history.Minimum()
	require.NoError(t, err)
	assert.Equal(t, items(t, []float64{-1}, []float64{0})[0], minimum)
}

func TestMinimumEmptyHistory(t *testing.T) {
	history := &PerformanceHistory{}

	_, err := history.Minimum()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestCumulatedMinimum(t *testing.T) {
	history := newHistory(t, []float64{0, -3, -1, 0, 1, -1}, []float64{2, 3, 1, 0, 0, 0})

	cumulated, err := history.CumulatedMinimum()
	require.NoError(t, err)
	assert.Equal(
		t,
		items(t, []float64{0, 0, -1, 0, 0, -1}, []float64{2, 2, 1, 0, 0, 0}),
		cumulated.Items,
	)
}

func TestCumulatedMinimumOfFeasibleHistory(t *testing.T) {
	history := newHistory(t, []float64{10, 8, 9}, nil)

	cumulated, err := history.CumulatedMinimum()
	require.NoError(t, err)
	assert.Equal(t, items(t, []float64{10, 8, 8}, nil), cumulated.Items)
}

func TestCumulatedMinimumIsIdempotent(t *testing.T) {
	history := newHistory(t, []float64{0, -3, -1, 0, 1, -1}, []float64{2, 3, 1, 0, 0, 0})

	once, err := history.CumulatedMinimum()
	require.NoError(t, err)
	twice, err := once.CumulatedMinimum()
	require.NoError(t, err)
	assert.Equal(t, once.Items, twice.Items)
}

func TestCumulatedMinimumEmptyHistory(t *testing.T) {
	history := &PerformanceHistory{}

	_, err := history.CumulatedMinimum()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestCumulatedMinimumPreservesMetadata(t *testing.T) {
	history := newHistory(t, []float64{1, 0}, nil)
	history.ProblemName = "Rosenbrock"
	history.DOESize = 3
	history.ExecutionTime = 1.5

	cumulated, err := history.CumulatedMinimum()
	require.NoError(t, err)
	assert.Equal(t, "Rosenbrock", cumulated.ProblemName)
	assert.Equal(t, 3, cumulated.DOESize)
	assert.Equal(t, 1.5, cumulated.ExecutionTime)
}

func TestRemoveLeadingInfeasible(t *testing.T) {
	history := newHistory(t, []float64{2, 1, 0, 1, -1}, []float64{2, 1, 0, 3, 0})

	truncated, err := history.RemoveLeadingInfeasible(EmptyOnNoFeasible)
	require.NoError(t, err)
	assert.Equal(t, items(t, []float64{0, 1, -1}, []float64{0, 3, 0}), truncated.Items)
}

func TestRemoveLeadingInfeasibleWithoutFeasibleItems(t *testing.T) {
	history := newHistory(t, []float64{2, 1}, []float64{2, 1})

	emptied, err := history.RemoveLeadingInfeasible(EmptyOnNoFeasible)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)

	kept, err := history.RemoveLeadingInfeasible(KeepAllOnNoFeasible)
	require.NoError(t, err)
	assert.Equal(t, history.Items, kept.Items)

	_, err = history.RemoveLeadingInfeasible(FailOnNoFeasible)
	assert.ErrorIs(t, err, ErrNoFeasibleItem)
}

func TestShorten(t *testing.T) {
	history := newHistory(t, []float64{3, 2, 1}, nil)

	assert.Equal(t, items(t, []float64{3, 2}, nil), history.Shorten(2).Items)
	assert.Equal(t, history.Items, history.Shorten(5).Items)
	assert.Empty(t, history.Shorten(0).Items)
}

func TestExtend(t *testing.T) {
	history := newHistory(t, []float64{3, 2}, []float64{1, 0})

	extended, err := history.Extend(4)
	require.NoError(t, err)
	assert.Equal(t, items(t, []float64{3, 2, 2, 2}, []float64{1, 0, 0, 0}), extended.Items)
}

func TestExtendToSmallerSize(t *testing.T) {
	history := newHistory(t, []float64{3, 2, 1}, nil)

	_, err := history.Extend(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the expected size (2) is smaller than the history size (3)")
}

func TestExtendEmptyHistory(t *testing.T) {
	history := &PerformanceHistory{}

	_, err := history.Extend(2)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestApplyInfeasibilityTolerance(t *testing.T) {
	history, err := NewPerformanceHistory(
		[]float64{3, 2, 1}, []float64{2, 1, 0}, []int{2, 1, 0},
	)
	require.NoError(t, err)

	tolerant := history.ApplyInfeasibilityTolerance(1)

	assert.Equal(t, 2.0, tolerant.Items[0].InfeasibilityMeasure)
	assert.Equal(t, 2, tolerant.Items[0].UnsatisfiedConstraints)
	assert.Zero(t, tolerant.Items[1].InfeasibilityMeasure)
	assert.Zero(t, tolerant.Items[1].UnsatisfiedConstraints)
	assert.Zero(t, tolerant.Items[2].InfeasibilityMeasure)
}

func TestHistoryString(t *testing.T) {
	history := newHistory(t, []float64{-2, -3}, []float64{1, 0})

	assert.Equal(t, "[(-2, 1), (-3, 0)]", history.String())
}

func TestHistoryFileRoundTrip(t *testing.T) {
	history, err := NewPerformanceHistory(
		[]float64{1, 0.5}, []float64{1, 0}, []int{1, 0},
	)
	require.NoError(t, err)
	history.ProblemName = "Rosenbrock"
	history.AlgorithmConfiguration = algorithms.NewConfiguration(
		"SLSQP", "SciPy SLSQP", map[string]any{"max_iter": float64(9)},
	)
	history.DOESize = 1
	history.ExecutionTime = 2.5

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.ToFile(path))

	loaded, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, history.Items, loaded.Items)
	assert.Equal(t, "Rosenbrock", loaded.ProblemName)
	require.NotNil(t, loaded.AlgorithmConfiguration)
	assert.Equal(t, "SciPy SLSQP", loaded.AlgorithmConfiguration.Name)
	assert.Equal(t, "SLSQP", loaded.AlgorithmConfiguration.AlgorithmName)
	assert.Equal(t, map[string]any{"max_iter": float64(9)}, loaded.AlgorithmConfiguration.Options)
	assert.Equal(t, 1, loaded.DOESize)
	assert.Equal(t, 2.5, loaded.ExecutionTime)
}

func TestHistoryFileRoundTripInfiniteInfeasibility(t *testing.T) {
	history, err := NewFeasibilityHistory([]float64{1, 0}, []bool{false, true}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, history.ToFile(path))

	loaded, err := FromFile(path)
	require.NoError(t, err)
	assert.True(t, math.IsInf(loaded.Items[0].InfeasibilityMeasure, 1))
	assert.Zero(t, loaded.Items[1].InfeasibilityMeasure)
}

func TestFromFileBareItemList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	contents := `[{"performance": 1.0, "infeasibility": 0.5},
		{"performance": 0.5, "infeasibility": 0.0, "n_unsatisfied_constraints": 0}]`
	require.NoError(t, writeFile(path, contents))

	loaded, err := FromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, 1.0, loaded.Items[0].PerformanceMeasure)
	assert.Equal(t, 0.5, loaded.Items[0].InfeasibilityMeasure)
	assert.Equal(t, UnknownConstraints, loaded.Items[0].UnsatisfiedConstraints)
	assert.True(t, loaded.Items[1].IsFeasible())
}

func TestFromFileRejectsNegativeInfeasibility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	contents := `{"history_items": [{"performance": 1.0, "infeasibility": -1.0}]}`
	require.NoError(t, writeFile(path, contents))

	_, err := FromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be non-negative")
}

func TestFromFileNonexistent(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
