package results

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	catalog, err := NewCatalog(db, zerolog.Nop())
	require.NoError(t, err)
	return catalog
}

func newTestRun(id, configuration, problem string, instance int, feasible bool) Run {
	return Run{
		ID:                 id,
		Configuration:      configuration,
		Problem:            problem,
		Instance:           instance,
		StartedAt:          time.Date(2026, 3, 5, 10, 0, instance, 0, time.UTC),
		ExecutionSeconds:   1.5,
		Evaluations:        100,
		FinalPerformance:   -1.25,
		FinalInfeasibility: 0,
		Feasible:           feasible,
		HistoryPath:        "/tmp/histories/" + id + ".json",
		Host:               "bench01",
	}
}

func TestCatalogSaveAndList(t *testing.T) {
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.Save(newTestRun("a", "SLSQP", "Rosenbrock", 1, true)))
	require.NoError(t, catalog.Save(newTestRun("b", "SLSQP", "Rosenbrock", 2, false)))

	runs, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
	assert.Equal(t, "SLSQP", runs[0].Configuration)
	assert.Equal(t, "Rosenbrock", runs[0].Problem)
	assert.Equal(t, 100, runs[0].Evaluations)
	assert.InDelta(t, -1.25, runs[0].FinalPerformance, 1e-12)
	assert.False(t, runs[0].Feasible)
	assert.True(t, runs[1].Feasible)
	assert.Equal(t, time.Date(2026, 3, 5, 10, 0, 1, 0, time.UTC), runs[1].StartedAt)
}

func TestCatalogSaveReplacesSameID(t *testing.T) {
	catalog := newTestCatalog(t)

	run := newTestRun("a", "SLSQP", "Rosenbrock", 1, false)
	require.NoError(t, catalog.Save(run))
	run.Feasible = true
	require.NoError(t, catalog.Save(run))

	runs, err := catalog.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Feasible)
}

func TestCatalogByConfiguration(t *testing.T) {
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.Save(newTestRun("a", "SLSQP", "Rosenbrock", 1, true)))
	require.NoError(t, catalog.Save(newTestRun("b", "COBYLA", "Rosenbrock", 1, true)))

	runs, err := catalog.ByConfiguration("COBYLA")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].ID)

	runs, err = catalog.ByConfiguration("NELDER-MEAD")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCatalogSummary(t *testing.T) {
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.Save(newTestRun("a", "SLSQP", "Rosenbrock", 1, true)))
	require.NoError(t, catalog.Save(newTestRun("b", "SLSQP", "Rastrigin", 1, false)))
	require.NoError(t, catalog.Save(newTestRun("c", "COBYLA", "Rosenbrock", 1, true)))

	summaries, err := catalog.Summary()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "COBYLA", summaries[0].Configuration)
	assert.Equal(t, 1, summaries[0].Runs)
	assert.Equal(t, "SLSQP", summaries[1].Configuration)
	assert.Equal(t, 2, summaries[1].Runs)
	assert.Equal(t, 1, summaries[1].FeasibleRuns)
	assert.InDelta(t, 1.5, summaries[1].MeanExecutionSec, 1e-12)
}
