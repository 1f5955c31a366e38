package testing

import (
	"context"
	"testing"

	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/profiles"
	"github.com/aristath/optibench/internal/modules/results"
)

// NewHistoryFixture builds a performance history from objective values,
// failing the test on invalid input.
func NewHistoryFixture(t *testing.T, problemName string, values ...float64) *results.PerformanceHistory {
	t.Helper()

	history, err := results.NewPerformanceHistory(values, nil, nil)
	if err != nil {
		t.Fatalf("Failed to build history fixture: %v", err)
	}
	history.ProblemName = problemName
	return history
}

// NewConstrainedHistoryFixture builds a performance history with matching
// infeasibility measures, failing the test on invalid input.
func NewConstrainedHistoryFixture(t *testing.T, problemName string, values, infeasibilities []float64) *results.PerformanceHistory {
	t.Helper()

	history, err := results.NewPerformanceHistory(values, infeasibilities, nil)
	if err != nil {
		t.Fatalf("Failed to build constrained history fixture: %v", err)
	}
	history.ProblemName = problemName
	return history
}

// NewProblemFixture builds a one-dimensional benchmarking problem with a
// single starting point and the given target values.
func NewProblemFixture(t *testing.T, name string, targets ...float64) *problems.Problem {
	t.Helper()

	problem, err := problems.New(name, 1, [][]float64{{0}})
	if err != nil {
		t.Fatalf("Failed to build problem fixture %s: %v", name, err)
	}
	if len(targets) > 0 {
		items := make([]results.HistoryItem, len(targets))
		for i, value := range targets {
			item, err := results.NewHistoryItem(value, 0)
			if err != nil {
				t.Fatalf("Failed to build target fixture for %s: %v", name, err)
			}
			items[i] = item
		}
		problem.SetTargetValues(profiles.NewTargetValues(items...))
	}
	return problem
}

// StubSolver returns a solver that replays fixed objective values for every
// instance of every problem.
type StubSolver struct {
	Values []float64
}

// Solve builds a performance history from the stub's fixed values.
func (s *StubSolver) Solve(_ context.Context, problem *problems.Problem, _ []float64, _ map[string]any) (*results.PerformanceHistory, error) {
	history, err := results.NewPerformanceHistory(s.Values, nil, nil)
	if err != nil {
		return nil, err
	}
	history.ProblemName = problem.Name
	return history, nil
}
