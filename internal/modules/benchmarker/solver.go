// Package benchmarker runs algorithm configurations on reference problems and
// records their performance histories.
//
// The optimization algorithms themselves live behind the Solver interface:
// the harness drives any implementation, measures its execution time and
// persists one history file per run. Solvers are looked up by algorithm name
// in a registry.
package benchmarker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/results"
)

// Solver runs one optimization algorithm on one problem instance and returns
// the performance history of the run, one item per evaluation. The options
// are the algorithm options of the configuration under benchmark.
type Solver interface {
	Solve(
		ctx context.Context,
		problem *problems.Problem,
		startingPoint []float64,
		options map[string]any,
	) (*results.PerformanceHistory, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(
	ctx context.Context,
	problem *problems.Problem,
	startingPoint []float64,
	options map[string]any,
) (*results.PerformanceHistory, error)

// Solve implements Solver.
func (f SolverFunc) Solve(
	ctx context.Context,
	problem *problems.Problem,
	startingPoint []float64,
	options map[string]any,
) (*results.PerformanceHistory, error) {
	return f(ctx, problem, startingPoint, options)
}

// Registry maps algorithm names to their solvers.
type Registry struct {
	solvers map[string]Solver
	mu      sync.RWMutex
	log     zerolog.Logger
}

// NewRegistry creates an empty solver registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		solvers: make(map[string]Solver),
		log:     log.With().Str("component", "solver_registry").Logger(),
	}
}

// Register registers the solver of an algorithm, replacing any previous one.
func (r *Registry) Register(algorithmName string, solver Solver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.solvers[algorithmName] = solver
	r.log.Debug().Str("algorithm", algorithmName).Msg("Registered solver")
}

// Solver retrieves the solver of an algorithm.
func (r *Registry) Solver(algorithmName string) (Solver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	solver, ok := r.solvers[algorithmName]
	if !ok {
		return nil, fmt.Errorf("the algorithm is not available: %s", algorithmName)
	}
	return solver, nil
}

// Available reports whether a solver is registered for the algorithm.
func (r *Registry) Available(algorithmName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.solvers[algorithmName]
	return ok
}

// Algorithms returns the registered algorithm names in alphabetical order.
func (r *Registry) Algorithms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
