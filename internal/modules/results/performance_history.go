package results

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aristath/optibench/internal/modules/algorithms"
)

var (
	// ErrEmptyHistory is returned by reductions that need at least one item.
	ErrEmptyHistory = errors.New("the performance history is empty")
	// ErrNoFeasibleItem is returned by RemoveLeadingInfeasible under
	// FailOnNoFeasible when the history contains no feasible item.
	ErrNoFeasibleItem = errors.New("the performance history contains no feasible item")
)

// InfeasiblePrefixPolicy selects the outcome of RemoveLeadingInfeasible for a
// history that contains no feasible item at all. There is no implicit
// default: call sites state their policy.
type InfeasiblePrefixPolicy int

const (
	// EmptyOnNoFeasible yields an empty derived history.
	EmptyOnNoFeasible InfeasiblePrefixPolicy = iota
	// KeepAllOnNoFeasible yields the history unchanged.
	KeepAllOnNoFeasible
	// FailOnNoFeasible yields ErrNoFeasibleItem.
	FailOnNoFeasible
)

// PerformanceHistory is the ordered record of the performance measures
// produced by one algorithm run on one problem, evaluation by evaluation.
type PerformanceHistory struct {
	// Items are the history entries in evaluation order.
	Items []HistoryItem
	// ProblemName names the problem the history belongs to.
	ProblemName string
	// AlgorithmConfiguration identifies the run's algorithm configuration.
	AlgorithmConfiguration *algorithms.Configuration
	// DOESize is the number of initial design-of-experiments evaluations.
	DOESize int
	// ExecutionTime is the duration of the run in seconds.
	ExecutionTime float64
}

// NewPerformanceHistory builds a history from parallel value slices.
// A nil infeasibilityMeasures slice marks every item feasible. A nil
// unsatisfiedConstraints slice resolves each count from feasibility: zero for
// feasible items, unknown otherwise.
func NewPerformanceHistory(
	performanceMeasures, infeasibilityMeasures []float64, unsatisfiedConstraints []int,
) (*PerformanceHistory, error) {
	if infeasibilityMeasures == nil {
		infeasibilityMeasures = make([]float64, len(performanceMeasures))
	}
	if len(performanceMeasures) != len(infeasibilityMeasures) {
		return nil, fmt.Errorf(
			"the performance history (size %d) and the infeasibility history (size %d) "+
				"must have the same length",
			len(performanceMeasures), len(infeasibilityMeasures),
		)
	}
	if unsatisfiedConstraints != nil &&
		len(unsatisfiedConstraints) != len(performanceMeasures) {
		return nil, fmt.Errorf(
			"the unsatisfied constraints history (size %d) and the performance history "+
				"(size %d) must have the same length",
			len(unsatisfiedConstraints), len(performanceMeasures),
		)
	}

	history := &PerformanceHistory{Items: make([]HistoryItem, 0, len(performanceMeasures))}
	for i, performance := range performanceMeasures {
		var (
			item HistoryItem
			err  error
		)
		if unsatisfiedConstraints == nil {
			item, err = NewHistoryItem(performance, infeasibilityMeasures[i])
		} else {
			item, err = NewConstrainedHistoryItem(
				performance, infeasibilityMeasures[i], unsatisfiedConstraints[i],
			)
		}
		if err != nil {
			return nil, err
		}
		history.Items = append(history.Items, item)
	}
	return history, nil
}

// NewFeasibilityHistory builds a history from performance measures and
// boolean feasibility statuses: feasible items get an infeasibility measure
// of zero, infeasible ones an infinite measure.
func NewFeasibilityHistory(
	performanceMeasures []float64, feasibilityStatuses []bool, unsatisfiedConstraints []int,
) (*PerformanceHistory, error) {
	if len(performanceMeasures) != len(feasibilityStatuses) {
		return nil, fmt.Errorf(
			"the performance history (size %d) and the feasibility history (size %d) "+
				"must have the same length",
			len(performanceMeasures), len(feasibilityStatuses),
		)
	}
	infeasibilityMeasures := make([]float64, len(feasibilityStatuses))
	for i, feasible := range feasibilityStatuses {
		if !feasible {
			infeasibilityMeasures[i] = math.Inf(1)
		}
	}
	return NewPerformanceHistory(
		performanceMeasures, infeasibilityMeasures, unsatisfiedConstraints,
	)
}

// Len returns the number of history items.
func (h *PerformanceHistory) Len() int {
	return len(h.Items)
}

// Append adds an item at the end of the history.
func (h *PerformanceHistory) Append(item HistoryItem) {
	h.Items = append(h.Items, item)
}

// Minimum returns the best item of the history.
func (h *PerformanceHistory) Minimum() (HistoryItem, error) {
	if len(h.Items) == 0 {
		return HistoryItem{}, ErrEmptyHistory
	}
	best := h.Items[0]
	for _, item := range h.Items[1:] {
		best = minItem(best, item)
	}
	return best, nil
}

// CumulatedMinimum returns the history of the best item seen so far at each
// evaluation index. Applying it twice gives the same result.
func (h *PerformanceHistory) CumulatedMinimum() (*PerformanceHistory, error) {
	if len(h.Items) == 0 {
		return nil, ErrEmptyHistory
	}
	items := make([]HistoryItem, len(h.Items))
	best := h.Items[0]
	items[0] = best
	for i, item := range h.Items[1:] {
		best = minItem(best, item)
		items[i+1] = best
	}
	return h.derive(items), nil
}

// RemoveLeadingInfeasible returns the history starting from its first
// feasible item. The policy decides the outcome when no item is feasible.
func (h *PerformanceHistory) RemoveLeadingInfeasible(
	policy InfeasiblePrefixPolicy,
) (*PerformanceHistory, error) {
	for i, item := range h.Items {
		if item.IsFeasible() {
			items := make([]HistoryItem, len(h.Items)-i)
			copy(items, h.Items[i:])
			return h.derive(items), nil
		}
	}
	switch policy {
	case KeepAllOnNoFeasible:
		items := make([]HistoryItem, len(h.Items))
		copy(items, h.Items)
		return h.derive(items), nil
	case FailOnNoFeasible:
		return nil, ErrNoFeasibleItem
	default:
		return h.derive(nil), nil
	}
}

// Shorten returns the history truncated to its first size items. A size
// larger than the history returns a full copy.
func (h *PerformanceHistory) Shorten(size int) *PerformanceHistory {
	if size < 0 {
		size = 0
	}
	if size > len(h.Items) {
		size = len(h.Items)
	}
	items := make([]HistoryItem, size)
	copy(items, h.Items[:size])
	return h.derive(items)
}

// Extend returns the history right-padded to the given size by repeating its
// final item.
func (h *PerformanceHistory) Extend(size int) (*PerformanceHistory, error) {
	if len(h.Items) == 0 {
		return nil, ErrEmptyHistory
	}
	if size < len(h.Items) {
		return nil, fmt.Errorf(
			"the expected size (%d) is smaller than the history size (%d)",
			size, len(h.Items),
		)
	}
	items := make([]HistoryItem, size)
	copy(items, h.Items)
	last := h.Items[len(h.Items)-1]
	for i := len(h.Items); i < size; i++ {
		items[i] = last
	}
	return h.derive(items), nil
}

// ApplyInfeasibilityTolerance returns the history with every item whose
// infeasibility measure is within the tolerance marked feasible.
func (h *PerformanceHistory) ApplyInfeasibilityTolerance(tolerance float64) *PerformanceHistory {
	items := make([]HistoryItem, len(h.Items))
	for i, item := range h.Items {
		if item.InfeasibilityMeasure <= tolerance {
			item.InfeasibilityMeasure = 0
			item.UnsatisfiedConstraints = 0
		}
		items[i] = item
	}
	return h.derive(items)
}

// String renders the items as a bracketed list, e.g. "[(1, 0), (2, 3)]".
func (h *PerformanceHistory) String() string {
	parts := make([]string, len(h.Items))
	for i, item := range h.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// derive builds a history around the given items, carrying the metadata over.
func (h *PerformanceHistory) derive(items []HistoryItem) *PerformanceHistory {
	return &PerformanceHistory{
		Items:                  items,
		ProblemName:            h.ProblemName,
		AlgorithmConfiguration: h.AlgorithmConfiguration,
		DOESize:                h.DOESize,
		ExecutionTime:          h.ExecutionTime,
	}
}
