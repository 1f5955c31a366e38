// Package problems describes the reference problems of a benchmark and their
// grouping.
//
// A benchmarking problem carries the data the harness needs to compare
// algorithm configurations on it: starting points, target values, optionally
// the names of its constraints and the value of its optimum. The functions of
// the problem itself stay behind the solver interface of the benchmarker.
package problems

import (
	"errors"
	"fmt"

	"github.com/aristath/optibench/internal/modules/profiles"
)

// DefaultDescription is used for problems declared without a description.
const DefaultDescription = "No description available."

// ErrNoTargetValues is returned when the target values of a problem are
// requested before being set.
var ErrNoTargetValues = errors.New("the benchmarking problem has no target values")

// Problem is a reference problem of a benchmark.
type Problem struct {
	// Name identifies the problem.
	Name string
	// Description is a short presentation of the problem for the report.
	Description string
	// Optimum is the best known objective value of the problem.
	Optimum float64
	// ConstraintsNames lists the scalar constraints of the problem, empty
	// for unconstrained problems.
	ConstraintsNames []string
	// Dimension is the number of design variables.
	Dimension int

	startingPoints [][]float64
	targetValues   *profiles.TargetValues
}

// New creates a benchmarking problem with the given starting points. Every
// starting point must have the dimension of the problem.
func New(name string, dimension int, startingPoints [][]float64) (*Problem, error) {
	if name == "" {
		return nil, errors.New("the benchmarking problem must have a name")
	}
	if dimension < 1 {
		return nil, fmt.Errorf("the problem dimension must be at least 1, got %d", dimension)
	}
	if len(startingPoints) == 0 {
		return nil, fmt.Errorf("the problem %q has no starting point", name)
	}
	for i, point := range startingPoints {
		if len(point) != dimension {
			return nil, fmt.Errorf(
				"the starting points of problem %q must be of dimension %d, "+
					"point %d is of dimension %d",
				name, dimension, i, len(point),
			)
		}
	}
	return &Problem{
		Name:           name,
		Description:    DefaultDescription,
		Dimension:      dimension,
		startingPoints: startingPoints,
	}, nil
}

// StartingPoints returns the starting points of the problem. Each point
// stands for one instance of the problem to be solved.
func (p *Problem) StartingPoints() [][]float64 {
	points := make([][]float64, len(p.startingPoints))
	copy(points, p.startingPoints)
	return points
}

// InstancesNumber returns the number of problem instances, one per starting
// point.
func (p *Problem) InstancesNumber() int {
	return len(p.startingPoints)
}

// SetTargetValues sets the scale of target values of the problem.
func (p *Problem) SetTargetValues(targetValues *profiles.TargetValues) {
	p.targetValues = targetValues
}

// TargetValues returns the target values of the problem, or ErrNoTargetValues
// when none were set or generated.
func (p *Problem) TargetValues() (*profiles.TargetValues, error) {
	if p.targetValues == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTargetValues, p.Name)
	}
	return p.targetValues, nil
}

// IsConstrained reports whether the problem declares named constraints.
func (p *Problem) IsConstrained() bool {
	return len(p.ConstraintsNames) > 0
}
