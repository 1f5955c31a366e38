// Package profiles computes the success thresholds and data profiles used to
// compare algorithm configurations.
//
// Target values are a scale of performance values for a problem, ranging from
// an easily achievable one to the best known value. A data profile counts, at
// each evaluation budget, the fraction of targets an algorithm configuration
// has reached, cumulated over reference problems and repeated runs.
package profiles

import (
	"math"

	"github.com/aristath/optibench/internal/modules/results"
)

// TargetValues is the ordered scale of targets of a benchmarking problem,
// from the easiest target to the hardest one.
type TargetValues struct {
	// Items are the targets in order of increasing difficulty.
	Items []results.HistoryItem
}

// NewTargetValues creates a scale of targets from history items.
func NewTargetValues(items ...results.HistoryItem) *TargetValues {
	return &TargetValues{Items: items}
}

// TargetValuesFromFile loads target values from a JSON file. The file holds
// history items, either bare or under a performance history record.
func TargetValuesFromFile(path string) (*TargetValues, error) {
	history, err := results.FromFile(path)
	if err != nil {
		return nil, err
	}
	return &TargetValues{Items: history.Items}, nil
}

// ToFile saves the target values as a JSON history file.
func (t *TargetValues) ToFile(path string) error {
	history := &results.PerformanceHistory{Items: t.Items}
	return history.ToFile(path)
}

// Len returns the number of targets.
func (t *TargetValues) Len() int {
	return len(t.Items)
}

// CountTargetsHit returns, at each evaluation index of the history, the
// number of targets the history has reached so far. The history is reduced to
// its cumulated minimum first, so passing an unreduced history is safe. The
// returned sequence is non-decreasing and bounded by the number of targets.
func (t *TargetValues) CountTargetsHit(history *results.PerformanceHistory) ([]int, error) {
	minimum, err := history.CumulatedMinimum()
	if err != nil {
		return nil, err
	}
	counts := make([]int, minimum.Len())
	for i, item := range minimum.Items {
		hits := 0
		for _, target := range t.Items {
			if item.LessOrEqual(target) {
				hits++
			}
		}
		counts[i] = hits
	}
	return counts, nil
}

// ObjectiveValues returns the performance measures of the targets, with
// infinity standing in for infeasible targets. The result is meant for
// display and plotting.
func (t *TargetValues) ObjectiveValues() []float64 {
	values := make([]float64, len(t.Items))
	for i, item := range t.Items {
		if item.IsFeasible() {
			values[i] = item.PerformanceMeasure
		} else {
			values[i] = math.Inf(1)
		}
	}
	return values
}

// FeasibleObjectiveValues returns the performance measures of the feasible
// targets only.
func (t *TargetValues) FeasibleObjectiveValues() []float64 {
	values := make([]float64, 0, len(t.Items))
	for _, item := range t.Items {
		if item.IsFeasible() {
			values = append(values, item.PerformanceMeasure)
		}
	}
	return values
}
