package results

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMismatchedProblem is returned when a history is added to a
	// collection gathering histories of another problem.
	ErrMismatchedProblem = errors.New(
		"the problem name of the history does not match the collection",
	)
	// ErrNoHistories is returned by reductions over an empty collection.
	ErrNoHistories = errors.New("the collection contains no performance history")
)

// PerformanceHistories is a collection of performance histories sharing a
// problem, typically the repetitions of one algorithm configuration from
// different starting points. Iteration order is insertion order.
type PerformanceHistories struct {
	// ProblemName names the problem every member history belongs to.
	ProblemName string

	histories []*PerformanceHistory
}

// NewPerformanceHistories creates a collection from the given histories. The
// problem name of the collection is taken from the first history; adding a
// history of another problem is an error.
func NewPerformanceHistories(histories ...*PerformanceHistory) (*PerformanceHistories, error) {
	collection := &PerformanceHistories{}
	for _, history := range histories {
		if err := collection.Add(history); err != nil {
			return nil, err
		}
	}
	return collection, nil
}

// Add appends a history to the collection.
func (c *PerformanceHistories) Add(history *PerformanceHistory) error {
	if len(c.histories) == 0 && c.ProblemName == "" {
		c.ProblemName = history.ProblemName
	} else if history.ProblemName != c.ProblemName {
		return fmt.Errorf(
			"%w: expected %q, got %q",
			ErrMismatchedProblem, c.ProblemName, history.ProblemName,
		)
	}
	c.histories = append(c.histories, history)
	return nil
}

// Len returns the number of histories in the collection.
func (c *PerformanceHistories) Len() int {
	return len(c.histories)
}

// All returns the histories in insertion order.
func (c *PerformanceHistories) All() []*PerformanceHistory {
	histories := make([]*PerformanceHistory, len(c.histories))
	copy(histories, c.histories)
	return histories
}

// MaxSize returns the length of the longest member history.
func (c *PerformanceHistories) MaxSize() int {
	maxSize := 0
	for _, history := range c.histories {
		if history.Len() > maxSize {
			maxSize = history.Len()
		}
	}
	return maxSize
}

// EqualSizeHistories returns the collection with every member right-padded to
// the length of the longest one, repeating final items.
func (c *PerformanceHistories) EqualSizeHistories() (*PerformanceHistories, error) {
	return c.mapHistories(func(history *PerformanceHistory) (*PerformanceHistory, error) {
		return history.Extend(c.MaxSize())
	})
}

// CumulatedMinimum returns the collection of member-wise cumulated minima.
func (c *PerformanceHistories) CumulatedMinimum() (*PerformanceHistories, error) {
	return c.mapHistories(func(history *PerformanceHistory) (*PerformanceHistory, error) {
		return history.CumulatedMinimum()
	})
}

// MinimumHistory returns the history of the best item across the collection
// at each evaluation index, members being right-padded to a common length.
func (c *PerformanceHistories) MinimumHistory() (*PerformanceHistory, error) {
	return c.statisticHistory(func(column []HistoryItem) HistoryItem {
		best := column[0]
		for _, item := range column[1:] {
			best = minItem(best, item)
		}
		return best
	})
}

// MaximumHistory returns the history of the worst item across the collection
// at each evaluation index, members being right-padded to a common length.
func (c *PerformanceHistories) MaximumHistory() (*PerformanceHistory, error) {
	return c.statisticHistory(func(column []HistoryItem) HistoryItem {
		worst := column[0]
		for _, item := range column[1:] {
			worst = maxItem(worst, item)
		}
		return worst
	})
}

// MedianHistory returns the history of the median item across the collection
// at each evaluation index, members being right-padded to a common length.
// For collections of even size, high selects the upper of the two middle
// items instead of the lower one.
func (c *PerformanceHistories) MedianHistory(high bool) (*PerformanceHistory, error) {
	return c.statisticHistory(func(column []HistoryItem) HistoryItem {
		sorted := make([]HistoryItem, len(column))
		copy(sorted, column)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Less(sorted[j])
		})
		if high {
			return sorted[len(sorted)/2]
		}
		return sorted[(len(sorted)-1)/2]
	})
}

// statisticHistory reduces the equal-size collection column by column.
func (c *PerformanceHistories) statisticHistory(
	reduce func(column []HistoryItem) HistoryItem,
) (*PerformanceHistory, error) {
	if len(c.histories) == 0 {
		return nil, ErrNoHistories
	}
	equalized, err := c.EqualSizeHistories()
	if err != nil {
		return nil, err
	}
	size := equalized.MaxSize()
	items := make([]HistoryItem, size)
	column := make([]HistoryItem, len(equalized.histories))
	for index := 0; index < size; index++ {
		for i, history := range equalized.histories {
			column[i] = history.Items[index]
		}
		items[index] = reduce(column)
	}
	return &PerformanceHistory{Items: items, ProblemName: c.ProblemName}, nil
}

// mapHistories applies a transform to every member, collecting the results
// into a new collection with the same problem name.
func (c *PerformanceHistories) mapHistories(
	transform func(*PerformanceHistory) (*PerformanceHistory, error),
) (*PerformanceHistories, error) {
	mapped := &PerformanceHistories{ProblemName: c.ProblemName}
	for _, history := range c.histories {
		transformed, err := transform(history)
		if err != nil {
			return nil, err
		}
		mapped.histories = append(mapped.histories, transformed)
	}
	return mapped, nil
}
