package problems

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optibench/internal/modules/algorithms"
	"github.com/aristath/optibench/internal/modules/results"
)

func writeHistory(
	t *testing.T, dir, problemName string, performances []float64,
) string {
	t.Helper()
	history, err := results.NewPerformanceHistory(performances, nil, nil)
	require.NoError(t, err)
	history.ProblemName = problemName
	path := filepath.Join(dir, problemName+".json")
	require.NoError(t, history.ToFile(path))
	return path
}

func TestGroupDefaults(t *testing.T) {
	problem := newProblem(t, "Rosenbrock")
	group := NewGroup("smooth", "", problem)
	assert.Equal(t, DefaultDescription, group.Description)
	require.Len(t, group.Problems(), 1)
	assert.Equal(t, problem, group.Problems()[0])
}

func TestGroupDataProfiles(t *testing.T) {
	problem := newProblem(t, "Rosenbrock")
	problem.SetTargetValues(newTargets(t, 9, 7))
	group := NewGroup("smooth", "Smooth problems", problem)

	dir := t.TempDir()
	path := writeHistory(t, dir, "Rosenbrock", []float64{10, 8, 9})
	index := results.NewIndex()
	require.NoError(t, index.AddPath("SLSQP", "Rosenbrock", path))

	configurations, err := algorithms.NewConfigurations(
		algorithms.NewConfiguration("SLSQP", "SLSQP", nil),
	)
	require.NoError(t, err)

	profiles, err := group.DataProfiles(
		configurations, index, LoadHistoryFile{}, DataProfileOptions{},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 0.5}, profiles["SLSQP"])
}

func TestGroupDataProfilesMissingTargets(t *testing.T) {
	group := NewGroup("smooth", "", newProblem(t, "Rosenbrock"))
	configurations, err := algorithms.NewConfigurations()
	require.NoError(t, err)

	_, err = group.DataProfiles(
		configurations, results.NewIndex(), LoadHistoryFile{}, DataProfileOptions{},
	)
	assert.ErrorIs(t, err, ErrNoTargetValues)
}

func TestGroupDataProfilesMissingHistories(t *testing.T) {
	problem := newProblem(t, "Rosenbrock")
	problem.SetTargetValues(newTargets(t, 1))
	group := NewGroup("smooth", "", problem)

	configurations, err := algorithms.NewConfigurations(
		algorithms.NewConfiguration("SLSQP", "SLSQP", nil),
	)
	require.NoError(t, err)

	_, err = group.DataProfiles(
		configurations, results.NewIndex(), LoadHistoryFile{}, DataProfileOptions{},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}

func TestGroupDataProfilesInfeasibilityTolerance(t *testing.T) {
	problem := newProblem(t, "Rosenbrock")
	problem.SetTargetValues(newTargets(t, 5))
	group := NewGroup("smooth", "", problem)

	dir := t.TempDir()
	history, err := results.NewPerformanceHistory(
		[]float64{4, 4}, []float64{0.01, 0.01}, nil,
	)
	require.NoError(t, err)
	history.ProblemName = "Rosenbrock"
	path := filepath.Join(dir, "history.json")
	require.NoError(t, history.ToFile(path))

	index := results.NewIndex()
	require.NoError(t, index.AddPath("SLSQP", "Rosenbrock", path))
	configurations, err := algorithms.NewConfigurations(
		algorithms.NewConfiguration("SLSQP", "SLSQP", nil),
	)
	require.NoError(t, err)

	// Without tolerance the run never becomes feasible and hits no target.
	profiles, err := group.DataProfiles(
		configurations, index, LoadHistoryFile{}, DataProfileOptions{},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, profiles["SLSQP"])

	profiles, err = group.DataProfiles(
		configurations, index, LoadHistoryFile{},
		DataProfileOptions{InfeasibilityTolerance: 0.1},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, profiles["SLSQP"])
}
