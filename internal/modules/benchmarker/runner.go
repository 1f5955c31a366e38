package benchmarker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/optibench/internal/modules/algorithms"
	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/results"
	"github.com/aristath/optibench/internal/utils"
)

// Runner executes algorithm configurations on reference problems and keeps
// the results index, the history files and the run catalog up to date.
type Runner struct {
	registry     *Registry
	historiesDir string
	resultsPath  string
	catalog      *results.Catalog
	sink         EventSink
	environment  Environment
	log          zerolog.Logger
}

// RunnerConfig holds the dependencies of a Runner. Catalog and EventSink are
// optional.
type RunnerConfig struct {
	Registry     *Registry
	HistoriesDir string
	ResultsPath  string
	Catalog      *results.Catalog
	EventSink    EventSink
	Log          zerolog.Logger
}

// NewRunner creates a benchmark runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("a solver registry is required")
	}
	if cfg.HistoriesDir == "" {
		return nil, fmt.Errorf("a histories directory is required")
	}
	if cfg.ResultsPath == "" {
		return nil, fmt.Errorf("a results file path is required")
	}
	return &Runner{
		registry:     cfg.Registry,
		historiesDir: cfg.HistoriesDir,
		resultsPath:  cfg.ResultsPath,
		catalog:      cfg.Catalog,
		sink:         cfg.EventSink,
		environment:  CaptureEnvironment(),
		log:          cfg.Log.With().Str("component", "benchmark_runner").Logger(),
	}, nil
}

// Execute runs every algorithm configuration on every problem instance,
// skipping instances already present in the results index unless overwrite is
// requested. The results index file is rewritten after each run so an
// interrupted benchmark loses at most the run in flight.
func (r *Runner) Execute(
	ctx context.Context,
	referenceProblems []*problems.Problem,
	configurations *algorithms.Configurations,
	overwrite bool,
) (*results.Index, error) {
	defer utils.OperationTimer("benchmark", r.log)()

	index, err := r.loadIndex()
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	r.emit(Event{Type: EventRunStarted, RunID: runID, Timestamp: time.Now()})
	r.log.Info().
		Str("run_id", runID.String()).
		Str("environment", r.environment.Fingerprint()).
		Int("configurations", configurations.Len()).
		Int("problems", len(referenceProblems)).
		Msg("Benchmark started")

	for _, configuration := range configurations.All() {
		solver, err := r.registry.Solver(configuration.AlgorithmName)
		if err != nil {
			return nil, err
		}
		for _, problem := range referenceProblems {
			if err := r.runProblem(
				ctx, runID, solver, configuration, problem, index, overwrite,
			); err != nil {
				return nil, err
			}
		}
	}

	r.emit(Event{Type: EventRunFinished, RunID: runID, Timestamp: time.Now()})
	r.log.Info().Str("run_id", runID.String()).Msg("Benchmark finished")

	return index, nil
}

func (r *Runner) runProblem(
	ctx context.Context,
	runID uuid.UUID,
	solver Solver,
	configuration *algorithms.Configuration,
	problem *problems.Problem,
	index *results.Index,
	overwrite bool,
) error {
	for instance, startingPoint := range problem.StartingPoints() {
		if err := ctx.Err(); err != nil {
			return err
		}

		historyPath, err := r.historyPath(configuration.Name, problem.Name, instance)
		if err != nil {
			return err
		}

		if !overwrite && index.Contains(configuration.Name, problem.Name, historyPath) {
			r.log.Debug().
				Str("configuration", configuration.Name).
				Str("problem", problem.Name).
				Int("instance", instance+1).
				Msg("Skipping already solved problem instance")
			r.emit(Event{
				Type:          EventInstanceSkipped,
				RunID:         runID,
				Configuration: configuration.Name,
				Problem:       problem.Name,
				Instance:      instance + 1,
				HistoryPath:   historyPath,
				Timestamp:     time.Now(),
			})
			continue
		}

		startedAt := time.Now()
		history, err := solver.Solve(ctx, problem, startingPoint, configuration.Options)
		if err != nil {
			return fmt.Errorf(
				"failed to solve instance %d of problem %q with configuration %q: %w",
				instance+1, problem.Name, configuration.Name, err,
			)
		}
		executionTime := time.Since(startedAt).Seconds()

		history.ProblemName = problem.Name
		history.AlgorithmConfiguration = configuration
		history.ExecutionTime = executionTime
		if history.DOESize == 0 {
			history.DOESize = 1
		}

		if err := history.ToFile(historyPath); err != nil {
			return err
		}
		if !index.Contains(configuration.Name, problem.Name, historyPath) {
			if err := index.AddPath(configuration.Name, problem.Name, historyPath); err != nil {
				return err
			}
		}
		if err := index.ToFile(r.resultsPath); err != nil {
			return err
		}
		if err := r.recordRun(runID, configuration, problem, instance, startedAt, history, historyPath); err != nil {
			return err
		}

		r.log.Info().
			Str("configuration", configuration.Name).
			Str("problem", problem.Name).
			Int("instance", instance+1).
			Float64("execution_time", executionTime).
			Msg("Problem instance solved")
		r.emit(Event{
			Type:          EventInstanceFinished,
			RunID:         runID,
			Configuration: configuration.Name,
			Problem:       problem.Name,
			Instance:      instance + 1,
			HistoryPath:   historyPath,
			Timestamp:     time.Now(),
		})
	}
	return nil
}

// historyPath builds the destination of a history file:
// <historiesDir>/<configuration>/<problem>/<configuration>.<instance+1>.json
// with whitespace collapsed to underscores in each component.
func (r *Runner) historyPath(configurationName, problemName string, instance int) (string, error) {
	configurationDir := utils.JoinSubstrings(configurationName)
	problemDir := utils.JoinSubstrings(problemName)
	dir := filepath.Join(r.historiesDir, configurationDir, problemDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create histories directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s.%d.json", configurationDir, instance+1)
	path, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve history path: %w", err)
	}
	return path, nil
}

func (r *Runner) loadIndex() (*results.Index, error) {
	if _, err := os.Stat(r.resultsPath); err != nil {
		if os.IsNotExist(err) {
			return results.NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to check results file %s: %w", r.resultsPath, err)
	}
	return results.LoadIndex(r.resultsPath)
}

func (r *Runner) recordRun(
	runID uuid.UUID,
	configuration *algorithms.Configuration,
	problem *problems.Problem,
	instance int,
	startedAt time.Time,
	history *results.PerformanceHistory,
	historyPath string,
) error {
	if r.catalog == nil {
		return nil
	}

	minimum, err := history.Minimum()
	if err != nil {
		return err
	}
	return r.catalog.Save(results.Run{
		ID:                 fmt.Sprintf("%s/%s/%s/%d", runID, configuration.Name, problem.Name, instance+1),
		Configuration:      configuration.Name,
		Problem:            problem.Name,
		Instance:           instance + 1,
		StartedAt:          startedAt,
		ExecutionSeconds:   history.ExecutionTime,
		Evaluations:        history.Len(),
		FinalPerformance:   minimum.PerformanceMeasure,
		FinalInfeasibility: minimum.InfeasibilityMeasure,
		Feasible:           minimum.IsFeasible(),
		HistoryPath:        historyPath,
		Host:               r.environment.Hostname,
	})
}

func (r *Runner) emit(event Event) {
	if r.sink != nil {
		r.sink(event)
	}
}
