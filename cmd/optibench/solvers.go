package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/optibench/internal/modules/benchmarker"
	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/results"
)

// Built-in solvers for the classic unconstrained test functions, so
// scenarios over those problems run out of the box. Anything else is
// expected to be registered by an embedding program.

const defaultEvaluationBudget = 100

// testFunctions maps lower-cased problem names to their objective.
var testFunctions = map[string]func(x []float64) float64{
	"sphere": func(x []float64) float64 {
		sum := 0.0
		for _, v := range x {
			sum += v * v
		}
		return sum
	},
	"rosenbrock": func(x []float64) float64 {
		sum := 0.0
		for i := 0; i < len(x)-1; i++ {
			sum += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(1-x[i], 2)
		}
		return sum
	},
	"rastrigin": func(x []float64) float64 {
		sum := 10.0 * float64(len(x))
		for _, v := range x {
			sum += v*v - 10*math.Cos(2*math.Pi*v)
		}
		return sum
	},
}

// builtinRegistry registers the solvers shipped with the command line tool.
func builtinRegistry(log zerolog.Logger) *benchmarker.Registry {
	registry := benchmarker.NewRegistry(log)
	registry.Register("NELDER-MEAD", benchmarker.SolverFunc(solveNelderMead))
	registry.Register("RANDOM-SEARCH", benchmarker.SolverFunc(solveRandomSearch))
	return registry
}

func objectiveFor(problem *problems.Problem) (func(x []float64) float64, error) {
	objective, ok := testFunctions[strings.ToLower(problem.Name)]
	if !ok {
		return nil, fmt.Errorf("no built-in objective for problem %q", problem.Name)
	}
	return objective, nil
}

func evaluationBudget(options map[string]any) int {
	if options == nil {
		return defaultEvaluationBudget
	}
	switch budget := options["max_evaluations"].(type) {
	case int:
		if budget > 0 {
			return budget
		}
	case float64:
		if budget > 0 {
			return int(budget)
		}
	}
	return defaultEvaluationBudget
}

// solveNelderMead runs the downhill simplex method and records one history
// item per objective evaluation.
func solveNelderMead(
	ctx context.Context,
	problem *problems.Problem,
	startingPoint []float64,
	options map[string]any,
) (*results.PerformanceHistory, error) {
	objective, err := objectiveFor(problem)
	if err != nil {
		return nil, err
	}
	budget := evaluationBudget(options)

	var performances []float64
	recorded := func(x []float64) float64 {
		value := objective(x)
		if len(performances) < budget {
			performances = append(performances, value)
		}
		return value
	}

	target := optimize.Problem{Func: recorded}
	settings := &optimize.Settings{FuncEvaluations: budget}
	// The optimizer result is not used: the history carries the outcome.
	_, err = optimize.Minimize(target, startingPoint, settings, &optimize.NelderMead{})
	if err != nil && len(performances) == 0 {
		return nil, fmt.Errorf("failed to minimize %q: %w", problem.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results.NewPerformanceHistory(performances, nil, nil)
}

// solveRandomSearch samples points uniformly in a box around the starting
// point. The seed option makes runs reproducible.
func solveRandomSearch(
	ctx context.Context,
	problem *problems.Problem,
	startingPoint []float64,
	options map[string]any,
) (*results.PerformanceHistory, error) {
	objective, err := objectiveFor(problem)
	if err != nil {
		return nil, err
	}
	budget := evaluationBudget(options)

	seed := int64(1)
	if options != nil {
		switch value := options["seed"].(type) {
		case int:
			seed = int64(value)
		case float64:
			seed = int64(value)
		}
	}
	rng := rand.New(rand.NewSource(seed))

	halfWidth := 2.0
	point := make([]float64, len(startingPoint))
	performances := make([]float64, 0, budget)
	performances = append(performances, objective(startingPoint))

	for len(performances) < budget {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, center := range startingPoint {
			point[i] = center + halfWidth*(2*rng.Float64()-1)
		}
		performances = append(performances, objective(point))
	}

	return results.NewPerformanceHistory(performances, nil, nil)
}
