package problems

import (
	"fmt"

	"github.com/aristath/optibench/internal/modules/algorithms"
	"github.com/aristath/optibench/internal/modules/profiles"
	"github.com/aristath/optibench/internal/modules/results"
)

// HistoryLoader reads a performance history from a file. The results history
// cache satisfies it, as does LoadHistoryFile.
type HistoryLoader interface {
	History(path string) (*results.PerformanceHistory, error)
}

// LoadHistoryFile is a HistoryLoader reading history files without caching.
type LoadHistoryFile struct{}

// History implements HistoryLoader.
func (LoadHistoryFile) History(path string) (*results.PerformanceHistory, error) {
	return results.FromFile(path)
}

// Group is a set of reference problems sharing characteristics such as
// function smoothness or constraint set geometry. Reports present one data
// profile per group.
type Group struct {
	// Name identifies the group.
	Name string
	// Description is a short presentation of the group for the report.
	Description string

	problems []*Problem
}

// NewGroup creates a group of benchmarking problems.
func NewGroup(name, description string, problems ...*Problem) *Group {
	if description == "" {
		description = DefaultDescription
	}
	return &Group{Name: name, Description: description, problems: problems}
}

// Problems returns the member problems in insertion order.
func (g *Group) Problems() []*Problem {
	problems := make([]*Problem, len(g.problems))
	copy(problems, g.problems)
	return problems
}

// DataProfileOptions tunes the computation of data profiles over recorded
// histories.
type DataProfileOptions struct {
	// InfeasibilityTolerance marks history items within the tolerance as
	// feasible before counting target hits.
	InfeasibilityTolerance float64
	// MaxEvaluations truncates the histories to the given budget.
	// Zero keeps every evaluation.
	MaxEvaluations int
}

// DataProfiles computes the data profile of each algorithm configuration over
// the problems of the group, reading the performance histories recorded in
// the results index.
func (g *Group) DataProfiles(
	configurations *algorithms.Configurations,
	index *results.Index,
	loader HistoryLoader,
	options DataProfileOptions,
) (map[string][]float64, error) {
	targetValues := make(map[string]*profiles.TargetValues, len(g.problems))
	for _, problem := range g.problems {
		targets, err := problem.TargetValues()
		if err != nil {
			return nil, err
		}
		targetValues[problem.Name] = targets
	}
	profile, err := profiles.NewDataProfile(targetValues)
	if err != nil {
		return nil, err
	}

	for _, configurationName := range configurations.Names() {
		for _, problem := range g.problems {
			paths, err := index.Paths(configurationName, problem.Name)
			if err != nil {
				return nil, err
			}
			for _, path := range paths {
				history, err := loader.History(path)
				if err != nil {
					return nil, fmt.Errorf(
						"failed to load the history of %q on %q: %w",
						configurationName, problem.Name, err,
					)
				}
				if options.MaxEvaluations > 0 {
					history = history.Shorten(options.MaxEvaluations)
				}
				history = history.ApplyInfeasibilityTolerance(options.InfeasibilityTolerance)
				if history.ProblemName == "" {
					// Legacy history files hold bare item lists.
					history.ProblemName = problem.Name
				}
				if err := profile.AddHistory(problem.Name, configurationName, history); err != nil {
					return nil, err
				}
			}
		}
	}
	return profile.Compute()
}
