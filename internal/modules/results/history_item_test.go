package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryItem(t *testing.T) {
	item, err := NewHistoryItem(2.5, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, item.PerformanceMeasure)
	assert.Equal(t, 0, item.UnsatisfiedConstraints)
	assert.True(t, item.IsFeasible())

	item, err = NewHistoryItem(2.5, 0.1)
	require.NoError(t, err)
	assert.Equal(t, UnknownConstraints, item.UnsatisfiedConstraints)
	assert.False(t, item.IsFeasible())
}

func TestNewHistoryItemsRejectNegativeInfeasibility(t *testing.T) {
	_, err := NewHistoryItem(1, -0.5)
	require.Error(t, err)

	_, err = NewConstrainedHistoryItem(1, -0.5, 1)
	require.Error(t, err)
}

func TestHistoryItemOrdering(t *testing.T) {
	feasibleLow, err := NewHistoryItem(1, 0)
	require.NoError(t, err)
	feasibleHigh, err := NewHistoryItem(5, 0)
	require.NoError(t, err)
	infeasibleLow, err := NewHistoryItem(-10, 0.2)
	require.NoError(t, err)
	infeasibleHigh, err := NewHistoryItem(-10, 0.9)
	require.NoError(t, err)

	// Feasibility dominates the performance measure.
	assert.True(t, feasibleHigh.Less(infeasibleLow))
	assert.True(t, feasibleLow.Less(feasibleHigh))
	// Among infeasible items the infeasibility measure decides.
	assert.True(t, infeasibleLow.Less(infeasibleHigh))

	assert.True(t, feasibleLow.LessOrEqual(feasibleLow))
	assert.False(t, feasibleHigh.LessOrEqual(feasibleLow))
}

func TestHistoryItemEqual(t *testing.T) {
	first, err := NewHistoryItem(1, 0.5)
	require.NoError(t, err)
	second, err := NewHistoryItem(1, 0.5)
	require.NoError(t, err)
	third, err := NewHistoryItem(1, 0.6)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.False(t, first.Equal(third))
}
