package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/optibench/internal/modules/problems"
	testhelpers "github.com/aristath/optibench/internal/testing"
)

func TestBuiltinRegistry(t *testing.T) {
	registry := builtinRegistry(zerolog.Nop())

	assert.True(t, registry.Available("NELDER-MEAD"))
	assert.True(t, registry.Available("RANDOM-SEARCH"))
	assert.False(t, registry.Available("SLSQP"))
}

func TestObjectiveForUnknownProblem(t *testing.T) {
	problem := testhelpers.NewProblemFixture(t, "Ackley")

	_, err := objectiveFor(problem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Ackley"`)
}

func TestEvaluationBudget(t *testing.T) {
	assert.Equal(t, defaultEvaluationBudget, evaluationBudget(nil))
	assert.Equal(t, defaultEvaluationBudget, evaluationBudget(map[string]any{}))
	assert.Equal(t, 25, evaluationBudget(map[string]any{"max_evaluations": 25}))
	// YAML numbers may decode as floats.
	assert.Equal(t, 50, evaluationBudget(map[string]any{"max_evaluations": 50.0}))
	assert.Equal(t, defaultEvaluationBudget, evaluationBudget(map[string]any{"max_evaluations": -1}))
}

func TestSolveRandomSearchIsReproducible(t *testing.T) {
	problem, err := problems.New("Sphere", 2, [][]float64{{1, 1}})
	require.NoError(t, err)

	options := map[string]any{"max_evaluations": 20, "seed": 7}

	first, err := solveRandomSearch(context.Background(), problem, []float64{1, 1}, options)
	require.NoError(t, err)
	second, err := solveRandomSearch(context.Background(), problem, []float64{1, 1}, options)
	require.NoError(t, err)

	require.Equal(t, 20, first.Len())
	require.Equal(t, second.Len(), first.Len())
	for i, item := range first.Items {
		assert.Equal(t, second.Items[i].PerformanceMeasure, item.PerformanceMeasure)
	}
	// The first item evaluates the starting point itself.
	assert.Equal(t, 2.0, first.Items[0].PerformanceMeasure)
}

func TestSolveNelderMeadImproves(t *testing.T) {
	problem, err := problems.New("Sphere", 2, [][]float64{{3, 3}})
	require.NoError(t, err)

	history, err := solveNelderMead(
		context.Background(), problem, []float64{3, 3},
		map[string]any{"max_evaluations": 60},
	)
	require.NoError(t, err)
	require.GreaterOrEqual(t, history.Len(), 1)
	assert.LessOrEqual(t, history.Len(), 60)

	best, err := history.Minimum()
	require.NoError(t, err)
	assert.Less(t, best.PerformanceMeasure, 18.0)
}
