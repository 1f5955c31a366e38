// Package scenario orchestrates benchmark executions and report generation
// over an output directory.
package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/optibench/internal/config"
	"github.com/aristath/optibench/internal/database"
	"github.com/aristath/optibench/internal/modules/benchmarker"
	"github.com/aristath/optibench/internal/modules/report"
	"github.com/aristath/optibench/internal/modules/results"
)

// Orchestrator runs a scenario end to end: it benchmarks every algorithm
// configuration on every problem instance, records the runs in the catalog,
// and generates the report.
type Orchestrator struct {
	scenario *config.Scenario
	registry *benchmarker.Registry
	dataDir  string
	sink     benchmarker.EventSink
	log      zerolog.Logger
}

// Options holds the dependencies of an Orchestrator.
type Options struct {
	Scenario  *config.Scenario
	Registry  *benchmarker.Registry
	DataDir   string
	EventSink benchmarker.EventSink
	Log       zerolog.Logger
}

// New validates the output directory and creates an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Scenario == nil {
		return nil, fmt.Errorf("a scenario is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("a solver registry is required")
	}
	if opts.DataDir == "" {
		return nil, fmt.Errorf("an output directory is required")
	}
	absDataDir, err := filepath.Abs(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Orchestrator{
		scenario: opts.Scenario,
		registry: opts.Registry,
		dataDir:  absDataDir,
		sink:     opts.EventSink,
		log:      opts.Log.With().Str("service", "scenario").Logger(),
	}, nil
}

// DataDir returns the output directory of the orchestrator.
func (o *Orchestrator) DataDir() string {
	return o.dataDir
}

// Schedule returns the cron schedule of the scenario, empty when none is
// declared.
func (o *Orchestrator) Schedule() string {
	return o.scenario.Schedule
}

func (o *Orchestrator) layout() *config.Config {
	return &config.Config{DataDir: o.dataDir}
}

// Benchmark executes the scenario's benchmark and returns the results index.
func (o *Orchestrator) Benchmark(ctx context.Context, overwrite bool) (*results.Index, error) {
	layout := o.layout()

	referenceProblems, err := o.scenario.BuildProblems()
	if err != nil {
		return nil, err
	}
	configurations, err := o.scenario.Configurations()
	if err != nil {
		return nil, err
	}

	db, err := database.New(database.Config{
		Path:    layout.CatalogPath(),
		Profile: database.ProfileCatalog,
		Name:    "catalog",
	})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	catalog, err := results.NewCatalog(db.Conn(), o.log)
	if err != nil {
		return nil, err
	}

	runner, err := benchmarker.NewRunner(benchmarker.RunnerConfig{
		Registry:     o.registry,
		HistoriesDir: layout.HistoriesDir(),
		ResultsPath:  layout.ResultsPath(),
		Catalog:      catalog,
		EventSink:    o.sink,
		Log:          o.log,
	})
	if err != nil {
		return nil, err
	}

	return runner.Execute(ctx, referenceProblems, configurations, overwrite)
}

// Report generates the scenario's report from the recorded results.
func (o *Orchestrator) Report() error {
	layout := o.layout()

	index, err := results.LoadIndex(layout.ResultsPath())
	if err != nil {
		return err
	}
	referenceProblems, err := o.scenario.BuildProblems()
	if err != nil {
		return err
	}
	groups, err := o.scenario.BuildGroups(referenceProblems)
	if err != nil {
		return err
	}
	configurations, err := o.scenario.Configurations()
	if err != nil {
		return err
	}

	cache := results.NewHistoryCache(layout.CachePath(), o.log)
	if err := cache.Load(); err != nil {
		o.log.Warn().Err(err).Msg("Failed to load the histories cache, starting cold")
	}

	generator, err := report.New(report.Config{
		RootDir:                layout.ReportDir(),
		Configurations:         configurations,
		Groups:                 groups,
		Index:                  index,
		Loader:                 cache,
		InfeasibilityTolerance: o.scenario.Report.InfeasibilityTolerance,
		MaxEvaluations:         o.scenario.Report.MaxEvaluations,
		Log:                    o.log,
	})
	if err != nil {
		return err
	}
	if err := generator.Generate(); err != nil {
		return err
	}

	if err := cache.Save(); err != nil {
		o.log.Warn().Err(err).Msg("Failed to save the histories cache")
	}
	return nil
}

// Run benchmarks the scenario and generates its report.
func (o *Orchestrator) Run(ctx context.Context, overwrite bool) error {
	if _, err := o.Benchmark(ctx, overwrite); err != nil {
		return err
	}
	return o.Report()
}

// Job adapts the orchestrator to the scheduler's job interface.
type Job struct {
	orchestrator *Orchestrator
}

// NewJob wraps an orchestrator into a schedulable job.
func NewJob(orchestrator *Orchestrator) *Job {
	return &Job{orchestrator: orchestrator}
}

// Name implements scheduler.Job.
func (j *Job) Name() string {
	return fmt.Sprintf("scenario:%s", j.orchestrator.scenario.Name)
}

// Run implements scheduler.Job.
func (j *Job) Run() error {
	return j.orchestrator.Run(context.Background(), false)
}
