package results

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Run is a single catalog record describing one solved problem instance.
type Run struct {
	ID                 string
	Configuration      string
	Problem            string
	Instance           int
	StartedAt          time.Time
	ExecutionSeconds   float64
	Evaluations        int
	FinalPerformance   float64
	FinalInfeasibility float64
	Feasible           bool
	HistoryPath        string
	Host               string
}

// RunSummary aggregates catalog records per algorithm configuration.
type RunSummary struct {
	Configuration    string
	Runs             int
	FeasibleRuns     int
	MeanExecutionSec float64
}

// Catalog records benchmark runs in a SQLite database so past executions
// can be inspected without re-reading every history file.
type Catalog struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCatalog creates a catalog over the given database connection and
// ensures the runs table exists.
func NewCatalog(db *sql.DB, log zerolog.Logger) (*Catalog, error) {
	c := &Catalog{
		db:  db,
		log: log.With().Str("component", "run_catalog").Logger(),
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			configuration TEXT NOT NULL,
			problem TEXT NOT NULL,
			instance INTEGER NOT NULL,
			started_at TIMESTAMP NOT NULL,
			execution_seconds REAL NOT NULL,
			evaluations INTEGER NOT NULL,
			final_performance REAL NOT NULL,
			final_infeasibility REAL NOT NULL,
			feasible INTEGER NOT NULL,
			history_path TEXT NOT NULL,
			host TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_configuration ON runs(configuration);
		CREATE INDEX IF NOT EXISTS idx_runs_problem ON runs(problem);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize run catalog: %w", err)
	}
	return nil
}

// Save inserts a run record, replacing any previous record with the same ID.
func (c *Catalog) Save(run Run) error {
	const query = `
		INSERT OR REPLACE INTO runs (
			id, configuration, problem, instance, started_at,
			execution_seconds, evaluations, final_performance,
			final_infeasibility, feasible, history_path, host
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.db.Exec(query,
		run.ID, run.Configuration, run.Problem, run.Instance,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.ExecutionSeconds, run.Evaluations, run.FinalPerformance,
		run.FinalInfeasibility, run.Feasible, run.HistoryPath, run.Host,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	c.log.Debug().
		Str("run_id", run.ID).
		Str("configuration", run.Configuration).
		Str("problem", run.Problem).
		Int("instance", run.Instance).
		Msg("Run recorded in catalog")

	return nil
}

// List returns all catalog records ordered by start time, newest first.
func (c *Catalog) List() ([]Run, error) {
	const query = `
		SELECT id, configuration, problem, instance, started_at,
			execution_seconds, evaluations, final_performance,
			final_infeasibility, feasible, history_path, host
		FROM runs
		ORDER BY started_at DESC
	`
	return c.queryRuns(query)
}

// ByConfiguration returns the catalog records for one algorithm configuration.
func (c *Catalog) ByConfiguration(configuration string) ([]Run, error) {
	const query = `
		SELECT id, configuration, problem, instance, started_at,
			execution_seconds, evaluations, final_performance,
			final_infeasibility, feasible, history_path, host
		FROM runs
		WHERE configuration = ?
		ORDER BY started_at DESC
	`
	return c.queryRuns(query, configuration)
}

func (c *Catalog) queryRuns(query string, args ...interface{}) ([]Run, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run catalog: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(
			&run.ID, &run.Configuration, &run.Problem, &run.Instance, &startedAt,
			&run.ExecutionSeconds, &run.Evaluations, &run.FinalPerformance,
			&run.FinalInfeasibility, &run.Feasible, &run.HistoryPath, &run.Host,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse run start time %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run records: %w", err)
	}

	return runs, nil
}

// Summary aggregates the catalog per algorithm configuration.
func (c *Catalog) Summary() ([]RunSummary, error) {
	const query = `
		SELECT configuration,
			COUNT(*),
			SUM(feasible),
			AVG(execution_seconds)
		FROM runs
		GROUP BY configuration
		ORDER BY configuration
	`
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize run catalog: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.Configuration, &s.Runs, &s.FeasibleRuns, &s.MeanExecutionSec); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run summaries: %w", err)
	}

	return summaries, nil
}
