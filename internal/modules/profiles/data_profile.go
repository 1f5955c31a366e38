package profiles

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aristath/optibench/internal/modules/results"
)

var (
	// ErrNoTargetValues is returned when a data profile is created without
	// reference problems.
	ErrNoTargetValues = errors.New("there are no target values to compute the data profile from")
	// ErrTargetsNumberMismatch is returned when the reference problems carry
	// different numbers of targets.
	ErrTargetsNumberMismatch = errors.New(
		"the reference problems must have the same number of target values",
	)
)

// DataProfile compares algorithm configurations on a set of reference
// problems, each carrying a scale of target values. For every configuration
// it yields, per evaluation budget, the fraction of targets reached over all
// problems and repeated runs.
type DataProfile struct {
	targetValues  map[string]*TargetValues
	targetsNumber int
	// histories maps configuration name then problem name to the runs.
	histories map[string]map[string]*results.PerformanceHistories
}

// NewDataProfile creates a data profile from the target values of the
// reference problems, keyed by problem name. Every problem must carry the
// same number of targets.
func NewDataProfile(targetValues map[string]*TargetValues) (*DataProfile, error) {
	if len(targetValues) == 0 {
		return nil, ErrNoTargetValues
	}
	targetsNumber := -1
	for _, targets := range targetValues {
		if targetsNumber == -1 {
			targetsNumber = targets.Len()
		} else if targets.Len() != targetsNumber {
			return nil, ErrTargetsNumberMismatch
		}
	}
	copied := make(map[string]*TargetValues, len(targetValues))
	for name, targets := range targetValues {
		copied[name] = targets
	}
	return &DataProfile{
		targetValues:  copied,
		targetsNumber: targetsNumber,
		histories:     make(map[string]map[string]*results.PerformanceHistories),
	}, nil
}

// AddHistory records a performance history of an algorithm configuration on a
// reference problem. The problem must be one of the reference problems.
func (p *DataProfile) AddHistory(
	problemName, configurationName string, history *results.PerformanceHistory,
) error {
	if _, ok := p.targetValues[problemName]; !ok {
		return fmt.Errorf("%q is not the name of a reference problem", problemName)
	}
	problems, ok := p.histories[configurationName]
	if !ok {
		problems = make(map[string]*results.PerformanceHistories, len(p.targetValues))
		for name := range p.targetValues {
			problems[name] = &results.PerformanceHistories{ProblemName: name}
		}
		p.histories[configurationName] = problems
	}
	return problems[problemName].Add(history)
}

// ConfigurationNames returns the names of the algorithm configurations with
// recorded histories, in alphabetical order.
func (p *DataProfile) ConfigurationNames() []string {
	names := make([]string, 0, len(p.histories))
	for name := range p.histories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compute returns the data profile of each algorithm configuration: the
// fraction of targets reached at each evaluation budget, cumulated over the
// reference problems and the repeated runs. Values lie in [0, 1] and are
// non-decreasing.
func (p *DataProfile) Compute() (map[string][]float64, error) {
	profiles := make(map[string][]float64, len(p.histories))
	for _, configurationName := range p.ConfigurationNames() {
		profile, err := p.computeFor(configurationName)
		if err != nil {
			return nil, err
		}
		profiles[configurationName] = profile
	}
	return profiles, nil
}

// computeFor builds the data profile of one algorithm configuration.
func (p *DataProfile) computeFor(configurationName string) ([]float64, error) {
	problems := p.histories[configurationName]
	runsNumber, err := p.runsNumber(configurationName)
	if err != nil {
		return nil, err
	}

	maxSize := 0
	for _, histories := range problems {
		if histories.MaxSize() > maxSize {
			maxSize = histories.MaxSize()
		}
	}

	totalHits := make([]float64, maxSize)
	for problemName, targets := range p.targetValues {
		for _, history := range problems[problemName].All() {
			hits, err := targets.CountTargetsHit(history)
			if err != nil {
				return nil, err
			}
			// Shorter hit sequences hold their last value up to the
			// common budget.
			last := hits[len(hits)-1]
			for index := 0; index < maxSize; index++ {
				if index < len(hits) {
					totalHits[index] += float64(hits[index])
				} else {
					totalHits[index] += float64(last)
				}
			}
		}
	}

	total := float64(p.targetsNumber * len(p.targetValues) * runsNumber)
	profile := make([]float64, maxSize)
	for index, hits := range totalHits {
		profile[index] = hits / total
	}
	return profile, nil
}

// runsNumber checks that every reference problem is represented by the same
// number of runs for a configuration, and returns that number.
func (p *DataProfile) runsNumber(configurationName string) (int, error) {
	runsNumber := -1
	for _, histories := range p.histories[configurationName] {
		if runsNumber == -1 {
			runsNumber = histories.Len()
		} else if histories.Len() != runsNumber {
			return 0, fmt.Errorf(
				"the reference problems are unequally represented for the algorithm "+
					"configuration %q", configurationName,
			)
		}
	}
	if runsNumber < 1 {
		return 0, fmt.Errorf(
			"there are no performance histories for the algorithm configuration %q",
			configurationName,
		)
	}
	return runsNumber, nil
}
