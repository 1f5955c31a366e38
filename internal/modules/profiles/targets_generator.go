package profiles

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/aristath/optibench/internal/modules/results"
)

var (
	// ErrNoReferenceHistories is returned when targets are requested without
	// reference histories.
	ErrNoReferenceHistories = errors.New(
		"there are no histories to generate the targets from",
	)
	// ErrInfeasibleBestTarget is returned when feasible targets are requested
	// but the best reference value is infeasible.
	ErrInfeasibleBestTarget = errors.New("the best target value is not feasible")
	// ErrBestTargetNotReached is returned when no reference history reaches
	// the best target value.
	ErrBestTargetNotReached = errors.New(
		"there is no performance history that reaches the best target value",
	)
)

// GeneratorOptions drives the computation of target values.
type GeneratorOptions struct {
	// TargetsNumber is the number of targets to compute.
	TargetsNumber int
	// BudgetMin is the evaluation budget defining the easiest target.
	// Values below 1 are treated as 1.
	BudgetMin int
	// OnlyFeasible requires every target to be feasible.
	OnlyFeasible bool
	// BestTargetObjective fixes the performance measure of the hardest
	// target. When nil, it is inferred from the reference histories.
	BestTargetObjective *float64
	// BestTargetTolerance relaxes comparisons with the best target value.
	BestTargetTolerance float64
}

// TargetsGenerator computes the target values of a problem out of reference
// performance histories, typically produced by trusted algorithms.
type TargetsGenerator struct {
	histories []*results.PerformanceHistory
}

// NewTargetsGenerator creates an empty targets generator.
func NewTargetsGenerator() *TargetsGenerator {
	return &TargetsGenerator{}
}

// AddHistory records a reference performance history.
func (g *TargetsGenerator) AddHistory(history *results.PerformanceHistory) {
	g.histories = append(g.histories, history)
}

// Compute derives target values from the reference histories:
// the histories are reduced to their cumulated minima, the ones reaching the
// best target value are kept, their median is truncated at the best target,
// and the targets are sampled from the median along a uniform budget scale.
func (g *TargetsGenerator) Compute(options GeneratorOptions) (*TargetValues, error) {
	references, bestTarget, err := g.referenceHistories(options)
	if err != nil {
		return nil, err
	}

	median, err := medianHistory(references)
	if err != nil {
		return nil, err
	}
	if options.OnlyFeasible {
		median, err = median.RemoveLeadingInfeasible(results.EmptyOnNoFeasible)
		if err != nil {
			return nil, err
		}
	}

	// Drop the values that stagnate once the best target is reached.
	for index, item := range median.Items {
		if item.LessOrEqual(bestTarget) {
			median = median.Shorten(index + 1)
			break
		}
	}

	budgetMin := options.BudgetMin
	if budgetMin < 1 {
		budgetMin = 1
	}
	scale, err := budgetScale(budgetMin, median.Len(), options.TargetsNumber)
	if err != nil {
		return nil, err
	}

	items := make([]results.HistoryItem, len(scale))
	for i, budget := range scale {
		items[i] = median.Items[budget-1]
	}
	return NewTargetValues(items...), nil
}

// referenceHistories reduces the recorded histories to their cumulated minima
// and keeps the ones reaching the best target value.
func (g *TargetsGenerator) referenceHistories(
	options GeneratorOptions,
) ([]*results.PerformanceHistory, results.HistoryItem, error) {
	if len(g.histories) == 0 {
		return nil, results.HistoryItem{}, ErrNoReferenceHistories
	}

	references := make([]*results.PerformanceHistory, len(g.histories))
	for i, history := range g.histories {
		minimum, err := history.CumulatedMinimum()
		if err != nil {
			return nil, results.HistoryItem{}, err
		}
		references[i] = minimum
	}

	var bestTarget results.HistoryItem
	if options.BestTargetObjective == nil {
		best := references[0].Items[references[0].Len()-1]
		for _, history := range references[1:] {
			last := history.Items[history.Len()-1]
			if last.Less(best) {
				best = last
			}
		}
		bestTarget = relaxTarget(
			best.PerformanceMeasure, best.InfeasibilityMeasure, options.BestTargetTolerance,
		)
	} else {
		bestTarget = relaxTarget(*options.BestTargetObjective, 0, options.BestTargetTolerance)
	}

	if options.OnlyFeasible && !bestTarget.IsFeasible() {
		return nil, results.HistoryItem{}, ErrInfeasibleBestTarget
	}

	reaching := references[:0]
	for _, history := range references {
		if history.Items[history.Len()-1].LessOrEqual(bestTarget) {
			reaching = append(reaching, history)
		}
	}
	if len(reaching) == 0 {
		return nil, results.HistoryItem{}, ErrBestTargetNotReached
	}
	return reaching, bestTarget, nil
}

// relaxTarget loosens a target by the given tolerance: a feasible target has
// its performance measure raised, an infeasible one its infeasibility
// measure.
func relaxTarget(performance, infeasibility, tolerance float64) results.HistoryItem {
	if infeasibility == 0 {
		return results.HistoryItem{
			PerformanceMeasure: performance + math.Max(
				tolerance*math.Abs(performance), tolerance,
			),
			UnsatisfiedConstraints: 0,
		}
	}
	return results.HistoryItem{
		PerformanceMeasure:     performance,
		InfeasibilityMeasure:   infeasibility + tolerance*math.Abs(infeasibility),
		UnsatisfiedConstraints: results.UnknownConstraints,
	}
}

// medianHistory returns the index-wise median of the histories, right-padded
// to a common length.
func medianHistory(histories []*results.PerformanceHistory) (*results.PerformanceHistory, error) {
	collection := &results.PerformanceHistories{}
	for _, history := range histories {
		if err := collection.Add(history); err != nil {
			return nil, err
		}
	}
	return collection.MedianHistory(false)
}

// budgetScale spreads the given number of budgets uniformly between the
// minimum and maximum evaluation budgets.
func budgetScale(budgetMin, budgetMax, budgetsNumber int) ([]int, error) {
	if budgetsNumber < 1 {
		return nil, fmt.Errorf("the number of targets must be at least 1, got %d", budgetsNumber)
	}
	if budgetsNumber > budgetMax-budgetMin+1 {
		return nil, fmt.Errorf(
			"the number of targets required (%d) is greater than the size of the longest "+
				"history (%d) starting from the minimum budget (%d)",
			budgetsNumber, budgetMax-budgetMin+1, budgetMin,
		)
	}
	if budgetsNumber == 1 {
		return []int{budgetMin}, nil
	}
	values := make([]float64, budgetsNumber)
	floats.Span(values, float64(budgetMin), float64(budgetMax))
	scale := make([]int, budgetsNumber)
	for i, value := range values {
		scale[i] = int(value)
	}
	return scale, nil
}
