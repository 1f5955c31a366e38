// Package results holds the performance data produced by benchmarking runs:
// single history items, per-run performance histories, collections of
// histories sharing a problem, the results index mapping algorithm
// configurations to history files, and the run catalog.
//
// A performance history records, evaluation by evaluation, the value of the
// performance measure (the objective) together with a measure of constraint
// violation. Histories support the transforms the reporting pipeline needs:
// cumulated minimum, truncation, right-padding, removal of the infeasible
// prefix.
package results

import "fmt"

// UnknownConstraints marks a history item whose number of unsatisfied
// constraints was not recorded.
const UnknownConstraints = -1

// HistoryItem is one entry of a performance history: the performance measure
// of a single evaluation and the corresponding constraint violation.
type HistoryItem struct {
	// PerformanceMeasure is the objective value of the evaluation.
	PerformanceMeasure float64
	// InfeasibilityMeasure quantifies constraint violation. Zero means the
	// evaluation is feasible.
	InfeasibilityMeasure float64
	// UnsatisfiedConstraints is the number of violated constraints, or
	// UnknownConstraints when it was not recorded.
	UnsatisfiedConstraints int
}

// NewHistoryItem creates a history item with an unknown number of unsatisfied
// constraints resolved from the infeasibility measure: zero when feasible.
func NewHistoryItem(performanceMeasure, infeasibilityMeasure float64) (HistoryItem, error) {
	unsatisfied := UnknownConstraints
	if infeasibilityMeasure == 0 {
		unsatisfied = 0
	}
	return NewConstrainedHistoryItem(performanceMeasure, infeasibilityMeasure, unsatisfied)
}

// NewConstrainedHistoryItem creates a history item carrying an explicit number
// of unsatisfied constraints.
func NewConstrainedHistoryItem(
	performanceMeasure, infeasibilityMeasure float64, unsatisfiedConstraints int,
) (HistoryItem, error) {
	if infeasibilityMeasure < 0 {
		return HistoryItem{}, fmt.Errorf(
			"the infeasibility measure must be non-negative, got %g", infeasibilityMeasure,
		)
	}
	return HistoryItem{
		PerformanceMeasure:     performanceMeasure,
		InfeasibilityMeasure:   infeasibilityMeasure,
		UnsatisfiedConstraints: unsatisfiedConstraints,
	}, nil
}

// IsFeasible reports whether the item satisfies all constraints.
func (item HistoryItem) IsFeasible() bool {
	return item.InfeasibilityMeasure == 0
}

// Less orders history items from best to worst: a lower infeasibility measure
// wins, and the performance measure breaks ties. The number of unsatisfied
// constraints is not part of the order.
func (item HistoryItem) Less(other HistoryItem) bool {
	if item.InfeasibilityMeasure != other.InfeasibilityMeasure {
		return item.InfeasibilityMeasure < other.InfeasibilityMeasure
	}
	return item.PerformanceMeasure < other.PerformanceMeasure
}

// LessOrEqual reports whether the item is at least as good as the other.
func (item HistoryItem) LessOrEqual(other HistoryItem) bool {
	return item.Less(other) || item.Equal(other)
}

// Equal compares the performance and infeasibility measures.
func (item HistoryItem) Equal(other HistoryItem) bool {
	return item.PerformanceMeasure == other.PerformanceMeasure &&
		item.InfeasibilityMeasure == other.InfeasibilityMeasure
}

// String renders the item as "(performance, infeasibility)".
func (item HistoryItem) String() string {
	return fmt.Sprintf("(%g, %g)", item.PerformanceMeasure, item.InfeasibilityMeasure)
}

// minItem returns the better of two items, preferring the first on ties.
func minItem(a, b HistoryItem) HistoryItem {
	if b.Less(a) {
		return b
	}
	return a
}

// maxItem returns the worse of two items, preferring the first on ties.
func maxItem(a, b HistoryItem) HistoryItem {
	if a.Less(b) {
		return b
	}
	return a
}
